package scope

import (
	"testing"
	"time"

	"stable-sharing/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

	got, err = ParseDate("2025-03-10T15:00:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 18, got.Hour())

	_, err = ParseDate("10/03/2025")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestParseInclude(t *testing.T) {
	got, err := ParseInclude("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseInclude("Veterinary, files,")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []Category{CategoryVeterinary, CategoryFiles}, got.Categories())
	assert.Nil(t, got.From)

	_, err = ParseInclude("veterinary,xrays")
	assert.ErrorIs(t, err, apperr.ErrInvalidScope)
}

func TestRequest_Descriptor(t *testing.T) {
	d, err := Request{IncludeLaboratory: true, DateFrom: "2025-01-01", DateTo: "2025-06-30"}.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, []Category{CategoryLaboratory}, d.Categories())
	require.NotNil(t, d.From)
	require.NotNil(t, d.To)

	_, err = Request{IncludeVeterinary: true, DateFrom: "2025-07-01", DateTo: "2025-06-30"}.Descriptor()
	assert.ErrorIs(t, err, apperr.ErrInvalidDateRange)

	_, err = Request{DateTo: "june"}.Descriptor()
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
