package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"stable-sharing/internal/domain/scope"
)

// Los descriptores se guardan como JSONB con los mismos tags que la API.

func scopeToJSON(d scope.Descriptor) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal scope: %w", err)
	}
	return string(b), nil
}

func scopePtrToJSON(d *scope.Descriptor) (sql.NullString, error) {
	if d == nil {
		return sql.NullString{}, nil
	}
	s, err := scopeToJSON(*d)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func scopeFromJSON(raw string) (scope.Descriptor, error) {
	var d scope.Descriptor
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return scope.Descriptor{}, fmt.Errorf("unmarshal scope: %w", err)
	}
	return d, nil
}

func scopePtrFromJSON(raw sql.NullString) (*scope.Descriptor, error) {
	if !raw.Valid {
		return nil, nil
	}
	d, err := scopeFromJSON(raw.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
