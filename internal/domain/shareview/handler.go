package shareview

import (
	"encoding/json"
	"errors"
	"net/http"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const deniedMessage = "this link is no longer available"

// RegisterPublicRoutes monta la lectura anónima por token. Va fuera de
// cualquier chequeo de auth.
func RegisterPublicRoutes(r chi.Router, res *Resolver) {
	r.Get("/public/shares/{token}", publicShareHandler(res))
}

// RegisterRoutes monta la vista de partner bajo un grant.
func RegisterRoutes(r chi.Router, res *Resolver) {
	r.Get("/grants/{grantID}/horses/{horseID}/view", grantViewHandler(res))
}

// publicShareHandler godoc
// @Summary Ver datos compartidos por link público
// @Description Resuelve el token y devuelve la vista de sólo lectura. Token inexistente, revocado o expirado responden igual (404).
// @Tags public
// @Produce json
// @Param token path string true "Token del link"
// @Param include query string false "Recorte opcional del scope (CSV: veterinary,laboratory,files)"
// @Param date_from query string false "Recorte opcional de ventana (YYYY-MM-DD)"
// @Param date_to query string false "Recorte opcional de ventana (YYYY-MM-DD)"
// @Success 200 {object} ShareView
// @Failure 400 {string} string "invalid scope"
// @Failure 404 {string} string "this link is no longer available"
// @Failure 503 {string} string "temporarily unavailable"
// @Router /public/shares/{token} [get]
func publicShareHandler(res *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Referrer-Policy", "no-referrer")

		requested, err := requestedScope(r)
		if err != nil {
			http.Error(w, apperr.Message(err), http.StatusBadRequest)
			return
		}

		view, err := res.ResolveShare(r.Context(), chi.URLParam(r, "token"), requested)
		if err != nil {
			switch {
			case errors.Is(err, apperr.ErrNotFoundOrRevoked):
				http.Error(w, deniedMessage, http.StatusNotFound)
			case errors.Is(err, apperr.ErrUnavailable):
				w.Header().Set("Retry-After", "1")
				http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// requestedScope arma el recorte pedido por query. Sin include se piden
// todas las categorías; el resolver igual intersecta con el scope base.
func requestedScope(r *http.Request) (*scope.Descriptor, error) {
	q := r.URL.Query()
	include, err := scope.ParseInclude(q.Get("include"))
	if err != nil {
		return nil, err
	}
	from, err := scope.ParseDate(q.Get("date_from"))
	if err != nil {
		return nil, err
	}
	to, err := scope.ParseDate(q.Get("date_to"))
	if err != nil {
		return nil, err
	}
	if include == nil && from == nil && to == nil {
		return nil, nil
	}
	if err := scope.ValidateWindow(from, to); err != nil {
		return nil, err
	}
	d := scope.Full()
	if include != nil {
		d = *include
	}
	d = d.Narrow(from, to)
	return &d, nil
}

func grantViewHandler(res *Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		view, err := res.ResolveGrant(r.Context(), actor, chi.URLParam(r, "grantID"), chi.URLParam(r, "horseID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, view)
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
