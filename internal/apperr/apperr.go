// Package apperr agrupa los tipos de error que comparten los módulos de sharing.
// Los servicios envuelven estos sentinels con detalle (fmt.Errorf("%w: ...")) y
// los handlers los comparan con errors.Is.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrInvalidState          = errors.New("invalid state")
	ErrInvalidScope          = errors.New("invalid scope")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDuplicateActive       = errors.New("duplicate active connection")
	ErrConnectionNotAccepted = errors.New("connection not accepted")

	// ErrNotFoundOrRevoked es el único error que ve un destinatario anónimo.
	// No distingue token inexistente, revocado o expirado.
	ErrNotFoundOrRevoked = errors.New("not found or revoked")

	// ErrUnavailable: fallo transitorio del store (timeout, conexión). Reintentable.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// Wrap agrega detalle a un kind sin perder errors.Is.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Store normaliza errores de infraestructura: timeouts y cancelaciones pasan a
// ErrUnavailable, el resto se devuelve tal cual.
func Store(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// Status mapea un error a código HTTP para usuarios autenticados.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidScope),
		errors.Is(err, ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotFoundOrRevoked):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrDuplicateActive),
		errors.Is(err, ErrConnectionNotAccepted):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message devuelve el texto seguro para la respuesta. Errores internos no se exponen.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
