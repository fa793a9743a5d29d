package consents

import (
	"encoding/json"
	"net/http"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/connections"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/connections/{connectionID}/grants", func(cr chi.Router) {
		cr.Post("/", createGrantHandler(svc))
		cr.Get("/", listGrantsHandler(svc))
	})
	r.Route("/grants/{grantID}", func(gr chi.Router) {
		gr.Post("/revoke", revokeGrantHandler(svc))
		gr.Get("/effective", effectiveGrantHandler(svc))
	})
}

type createGrantRequest struct {
	GrantorTenantID string `json:"grantor_tenant_id"`
	ResourceType    string `json:"resource_type" validate:"required,oneof=veterinary laboratory files"`
	AccessLevel     string `json:"access_level" validate:"omitempty,oneof=read write"`
	DateFrom        string `json:"date_from"`
	DateTo          string `json:"date_to"`
	ForwardOnly     bool   `json:"forward_only"`
}

type grantResponse struct {
	ID              string         `json:"id"`
	ConnectionID    string         `json:"connection_id"`
	GrantorTenantID string         `json:"grantor_tenant_id"`
	GranteeTenantID string         `json:"grantee_tenant_id"`
	ResourceType    scope.Category `json:"resource_type"`
	AccessLevel     AccessLevel    `json:"access_level"`
	DateFrom        *time.Time     `json:"date_from,omitempty"`
	DateTo          *time.Time     `json:"date_to,omitempty"`
	ForwardOnly     bool           `json:"forward_only"`
	State           State          `json:"state"`
	FromPreset      bool           `json:"from_preset"`
	CreatedBy       string         `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	RevokedAt       *time.Time     `json:"revoked_at,omitempty"`
}

type effectiveResponse struct {
	Grant           grantResponse     `json:"grant"`
	ConnectionState connections.State `json:"connection_state"`
	Effective       bool              `json:"effective"`
}

// createGrantHandler godoc
// @Summary Crear consent grant
// @Description Sólo bajo una conexión accepted (si no, 409). El grantor es la parte del actor salvo que se indique grantor_tenant_id.
// @Tags grants
// @Accept json
// @Produce json
// @Param connectionID path string true "ID de la conexión"
// @Param payload body createGrantRequest true "Grant"
// @Success 201 {object} grantResponse
// @Failure 400 {string} string "validación / date range"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "connection not found"
// @Failure 409 {string} string "connection not accepted"
// @Router /connections/{connectionID}/grants [post]
func createGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createGrantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		from, err := scope.ParseDate(req.DateFrom)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		to, err := scope.ParseDate(req.DateTo)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		g, err := svc.Create(r.Context(), actor, chi.URLParam(r, "connectionID"), CreateInput{
			GrantorTenantID: req.GrantorTenantID,
			ResourceType:    scope.Category(req.ResourceType),
			AccessLevel:     AccessLevel(req.AccessLevel),
			From:            from,
			To:              to,
			ForwardOnly:     req.ForwardOnly,
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

func listGrantsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByConnection(r.Context(), actor, chi.URLParam(r, "connectionID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrantResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revokeGrantHandler godoc
// @Summary Revocar consent grant
// @Description Sólo el grantor. Idempotente e irreversible.
// @Tags grants
// @Produce json
// @Param grantID path string true "ID del grant"
// @Success 200 {object} grantResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "grant not found"
// @Router /grants/{grantID}/revoke [post]
func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Revoke(r.Context(), actor, chi.URLParam(r, "grantID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func effectiveGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		res, err := svc.EffectiveFor(r.Context(), actor, chi.URLParam(r, "grantID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, effectiveResponse{
			Grant:           toGrantResponse(res.Grant),
			ConnectionState: res.Connection.State,
			Effective:       res.Effective,
		})
	}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:              g.ID,
		ConnectionID:    g.ConnectionID,
		GrantorTenantID: g.GrantorTenantID,
		GranteeTenantID: g.GranteeTenantID,
		ResourceType:    g.ResourceType,
		AccessLevel:     g.AccessLevel,
		DateFrom:        g.From,
		DateTo:          g.To,
		ForwardOnly:     g.ForwardOnly,
		State:           g.State,
		FromPreset:      g.FromPreset,
		CreatedBy:       g.CreatedBy,
		CreatedAt:       g.CreatedAt,
		RevokedAt:       g.RevokedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
