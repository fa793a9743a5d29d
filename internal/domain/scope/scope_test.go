package scope

import (
	"errors"
	"testing"
	"time"

	"stable-sharing/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDescriptor_Validate(t *testing.T) {
	ok := Descriptor{Veterinary: true, From: day(2025, 1, 1), To: day(2025, 1, 1)}
	require.NoError(t, ok.Validate())

	open := Descriptor{Veterinary: true, To: day(2025, 1, 1)}
	require.NoError(t, open.Validate())

	bad := Descriptor{Veterinary: true, From: day(2025, 2, 1), To: day(2025, 1, 1)}
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidDateRange))
}

func TestDescriptor_Intersect_NeverWidens(t *testing.T) {
	a := Descriptor{Veterinary: true, Laboratory: true, From: day(2024, 1, 1)}
	b := Descriptor{Veterinary: true, Files: true, To: day(2024, 6, 30)}

	got := a.Intersect(b)

	assert.True(t, got.Veterinary)
	assert.False(t, got.Laboratory)
	assert.False(t, got.Files)
	require.NotNil(t, got.From)
	require.NotNil(t, got.To)
	assert.Equal(t, *day(2024, 1, 1), *got.From)
	assert.Equal(t, *day(2024, 6, 30), *got.To)

	for _, c := range AllCategories {
		if got.Has(c) {
			assert.True(t, a.Has(c) && b.Has(c), "category %s widened", c)
		}
	}
}

func TestDescriptor_Intersect_PicksNarrowerBounds(t *testing.T) {
	a := Descriptor{Veterinary: true, From: day(2024, 3, 1), To: day(2024, 12, 31)}
	b := Descriptor{Veterinary: true, From: day(2024, 1, 1), To: day(2024, 5, 31)}

	got := a.Intersect(b)
	assert.Equal(t, *day(2024, 3, 1), *got.From)
	assert.Equal(t, *day(2024, 5, 31), *got.To)

	// no comparte punteros con los originales
	*got.From = got.From.AddDate(1, 0, 0)
	assert.Equal(t, *day(2024, 3, 1), *a.From)
}

func TestDescriptor_Contains_InclusiveDayBounds(t *testing.T) {
	d := Descriptor{From: day(2024, 1, 10), To: day(2024, 1, 20)}

	assert.False(t, d.Contains(time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC)))
	assert.True(t, d.Contains(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, d.Contains(time.Date(2024, 1, 20, 18, 30, 0, 0, time.UTC)))
	assert.False(t, d.Contains(time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC)))

	assert.True(t, Descriptor{}.Contains(time.Now()))
}

func TestDescriptor_WindowEmpty(t *testing.T) {
	d := Descriptor{From: day(2024, 2, 1)}.Narrow(nil, day(2024, 1, 1))
	assert.True(t, d.WindowEmpty())

	same := Descriptor{From: day(2024, 1, 1), To: day(2024, 1, 1)}
	assert.False(t, same.WindowEmpty())
}

func TestCategories_StableOrder(t *testing.T) {
	d := Only(CategoryFiles, CategoryVeterinary)
	assert.Equal(t, []Category{CategoryVeterinary, CategoryFiles}, d.Categories())
	assert.True(t, Descriptor{}.IsEmpty())
	assert.Len(t, Full().Categories(), len(AllCategories))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" Laboratory ")
	assert.True(t, ok)
	assert.Equal(t, CategoryLaboratory, c)

	_, ok = ParseCategory("billing")
	assert.False(t, ok)
}
