package shares

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRoutes monta las rutas de administración de shares. publicBaseURL
// se usa para armar el link que se devuelve al crear.
func RegisterRoutes(r chi.Router, svc *Service, publicBaseURL string) {
	r.Route("/horses/{horseID}/shares", func(hr chi.Router) {
		hr.Post("/", createShareHandler(svc, publicBaseURL))
		hr.Get("/", listSharesHandler(svc))
	})
	r.Route("/shares/{shareID}", func(sr chi.Router) {
		sr.Get("/", getShareHandler(svc))
		sr.Post("/revoke", revokeShareHandler(svc))
		sr.Get("/audit", shareAuditHandler(svc))
	})
}

// createShareRequest: pack_key o scope, nunca ambos. Sin ninguno se usa el
// pack de sistema más restrictivo.
type createShareRequest struct {
	TenantID       string         `json:"tenant_id"`
	PackKey        string         `json:"pack_key" validate:"max=63"`
	Scope          *scope.Request `json:"scope,omitempty"`
	DateFrom       string         `json:"date_from"`
	DateTo         string         `json:"date_to"`
	ExpiresAt      string         `json:"expires_at"` // RFC3339 opcional
	RecipientEmail string         `json:"recipient_email" validate:"omitempty,email"`
}

type shareResponse struct {
	ID             string            `json:"id"`
	TenantID       string            `json:"tenant_id"`
	HorseID        string            `json:"horse_id"`
	RecipientEmail string            `json:"recipient_email,omitempty"`
	PackKey        string            `json:"pack_key,omitempty"`
	Scope          *scope.Descriptor `json:"scope,omitempty"`
	DateFrom       *time.Time        `json:"date_from,omitempty"`
	DateTo         *time.Time        `json:"date_to,omitempty"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	State          State             `json:"state"`
	Effective      bool              `json:"effective"`
	CreatedBy      string            `json:"created_by"`
	CreatedAt      time.Time         `json:"created_at"`
	RevokedAt      *time.Time        `json:"revoked_at,omitempty"`
}

type issuedResponse struct {
	shareResponse
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}

// createShareHandler godoc
// @Summary Crear link público de un caballo
// @Description Emite un token de acceso de sólo lectura. El token se devuelve una única vez. Requiere capability sharing:manage en el tenant dueño.
// @Tags shares
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Tenant-IDs header string false "Solo en modo dev, tenants del usuario (CSV)"
// @Param Authorization header string false "Bearer token en producción"
// @Param horseID path string true "ID del caballo"
// @Param payload body createShareRequest true "pack_key o scope"
// @Success 201 {object} issuedResponse
// @Failure 400 {string} string "invalid scope / invalid date range"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "horse or pack not found"
// @Router /horses/{horseID}/shares [post]
func createShareHandler(svc *Service, publicBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createShareRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		in := CreateInput{
			TenantID:       actor.TenantOrDefault(req.TenantID),
			HorseID:        chi.URLParam(r, "horseID"),
			PackKey:        req.PackKey,
			RecipientEmail: req.RecipientEmail,
		}
		var err error
		if req.Scope != nil {
			// la exclusividad se chequea antes que el contenido del scope
			if strings.TrimSpace(req.PackKey) != "" {
				err = apperr.Wrap(apperr.ErrInvalidScope, "pack_key and a custom scope are mutually exclusive")
				http.Error(w, apperr.Message(err), apperr.Status(err))
				return
			}
			var sc scope.Descriptor
			if sc, err = req.Scope.Descriptor(); err != nil {
				http.Error(w, apperr.Message(err), apperr.Status(err))
				return
			}
			in.Scope = &sc
		}
		if in.From, err = scope.ParseDate(req.DateFrom); err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		if in.To, err = scope.ParseDate(req.DateTo); err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		if strings.TrimSpace(req.ExpiresAt) != "" {
			var t time.Time
			if t, err = time.Parse(time.RFC3339, req.ExpiresAt); err != nil {
				http.Error(w, "expires_at must be RFC3339", http.StatusBadRequest)
				return
			}
			in.ExpiresAt = &t
		}

		issued, err := svc.Create(r.Context(), actor, in)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		out := issuedResponse{
			shareResponse: toShareResponse(View{Share: issued.Share, Effective: true}),
			Token:         issued.Token,
		}
		if base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"); base != "" {
			out.URL = base + "/public/shares/" + issued.Token
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// listSharesHandler godoc
// @Summary Listar shares de un caballo
// @Description Cada item trae `effective` calculado en el momento (vencidos salen como no efectivos aunque su estado guardado sea active).
// @Tags shares
// @Produce json
// @Param horseID path string true "ID del caballo"
// @Success 200 {array} shareResponse
// @Router /horses/{horseID}/shares [get]
func listSharesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), actor, chi.URLParam(r, "horseID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		out := make([]shareResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toShareResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getShareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		v, err := svc.Get(r.Context(), actor, chi.URLParam(r, "shareID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toShareResponse(v))
	}
}

// revokeShareHandler godoc
// @Summary Revocar link público
// @Description Idempotente. Efectivo para toda resolución posterior.
// @Tags shares
// @Produce json
// @Param shareID path string true "ID del share"
// @Success 200 {object} shareResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "share not found"
// @Router /shares/{shareID}/revoke [post]
func revokeShareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sh, err := svc.Revoke(r.Context(), actor, chi.URLParam(r, "shareID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toShareResponse(View{Share: sh, Effective: false}))
	}
}

func shareAuditHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Audit(r.Context(), actor, chi.URLParam(r, "shareID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, audit.ToResponses(items))
	}
}

func toShareResponse(v View) shareResponse {
	sh := v.Share
	return shareResponse{
		ID:             sh.ID,
		TenantID:       sh.TenantID,
		HorseID:        sh.HorseID,
		RecipientEmail: sh.RecipientEmail,
		PackKey:        sh.PackKey,
		Scope:          sh.Scope,
		DateFrom:       sh.From,
		DateTo:         sh.To,
		ExpiresAt:      sh.ExpiresAt,
		State:          sh.State,
		Effective:      v.Effective,
		CreatedBy:      sh.CreatedBy,
		CreatedAt:      sh.CreatedAt,
		RevokedAt:      sh.RevokedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
