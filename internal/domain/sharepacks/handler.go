package sharepacks

import (
	"encoding/json"
	"net/http"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/share-packs", func(pr chi.Router) {
		pr.Get("/", listPacksHandler(svc))
		pr.Post("/", createPackHandler(svc))
		pr.Put("/{key}", updatePackHandler(svc))
		pr.Delete("/{key}", deletePackHandler(svc))
	})
}

type createPackRequest struct {
	TenantID    string        `json:"tenant_id"`
	Key         string        `json:"key" validate:"required,max=63"`
	Name        string        `json:"name" validate:"required,max=120"`
	Description string        `json:"description" validate:"max=500"`
	Scope       scope.Request `json:"scope"`
}

type updatePackRequest struct {
	TenantID    string        `json:"tenant_id"`
	Name        string        `json:"name" validate:"required,max=120"`
	Description string        `json:"description" validate:"max=500"`
	Scope       scope.Request `json:"scope"`
}

type packResponse struct {
	TenantID    string           `json:"tenant_id,omitempty"`
	Key         string           `json:"key"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Scope       scope.Descriptor `json:"scope"`
	IsSystem    bool             `json:"is_system"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// listPacksHandler godoc
// @Summary Listar share packs
// @Description Devuelve los packs de sistema y los del tenant.
// @Tags share-packs
// @Produce json
// @Param tenant_id query string false "Tenant (opcional si el usuario tiene uno solo)"
// @Success 200 {array} packResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /share-packs [get]
func listPacksHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), actor, actor.TenantOrDefault(r.URL.Query().Get("tenant_id")))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		out := make([]packResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPackResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createPackHandler godoc
// @Summary Crear share pack del tenant
// @Tags share-packs
// @Accept json
// @Produce json
// @Param payload body createPackRequest true "Pack"
// @Success 201 {object} packResponse
// @Failure 400 {string} string "validación / date range"
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "pack already exists"
// @Router /share-packs [post]
func createPackHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sc, err := req.Scope.Descriptor()
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		p, err := svc.Create(r.Context(), actor, CreateInput{
			TenantID:    actor.TenantOrDefault(req.TenantID),
			Key:         req.Key,
			Name:        req.Name,
			Description: req.Description,
			Scope:       sc,
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusCreated, toPackResponse(p))
	}
}

func updatePackHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updatePackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sc, err := req.Scope.Descriptor()
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		p, err := svc.Update(r.Context(), actor, actor.TenantOrDefault(req.TenantID), chi.URLParam(r, "key"), UpdateInput{
			Name:        req.Name,
			Description: req.Description,
			Scope:       sc,
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toPackResponse(p))
	}
}

func deletePackHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tenantID := actor.TenantOrDefault(r.URL.Query().Get("tenant_id"))
		if err := svc.Delete(r.Context(), actor, tenantID, chi.URLParam(r, "key")); err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toPackResponse(p Pack) packResponse {
	out := packResponse{
		TenantID:    p.TenantID,
		Key:         p.Key,
		Name:        p.Name,
		Description: p.Description,
		Scope:       p.Scope,
		IsSystem:    p.IsSystem,
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
