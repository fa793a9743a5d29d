package horses

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/horses", func(hr chi.Router) {
		hr.Post("/", createHorseHandler(svc))
		hr.Get("/", listHorsesHandler(svc))
		hr.Get("/{horseID}", getHorseHandler(svc))
	})
}

type createHorseRequest struct {
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name" validate:"required,max=120"`
	Breed     string `json:"breed" validate:"max=120"`
	Sex       string `json:"sex" validate:"omitempty,oneof=mare stallion gelding unknown"`
	Color     string `json:"color" validate:"max=60"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD opcional
	UELN      string `json:"ueln" validate:"omitempty,len=15"`
	Microchip string `json:"microchip" validate:"max=32"`
	Notes     string `json:"notes"`
}

type horseResponse struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Name      string     `json:"name"`
	Breed     string     `json:"breed"`
	Sex       Sex        `json:"sex"`
	Color     string     `json:"color"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	UELN      string     `json:"ueln"`
	Microchip string     `json:"microchip"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func createHorseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createHorseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse(time.DateOnly, req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		h, err := svc.Create(r.Context(), actor, CreateInput{
			TenantID:  actor.TenantOrDefault(req.TenantID),
			Name:      req.Name,
			Breed:     req.Breed,
			Sex:       Sex(req.Sex),
			Color:     req.Color,
			BirthDate: bd,
			UELN:      req.UELN,
			Microchip: req.Microchip,
			Notes:     req.Notes,
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		writeJSON(w, http.StatusCreated, toHorseResponse(h))
	}
}

func listHorsesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tenantID := actor.TenantOrDefault(r.URL.Query().Get("tenant_id"))
		items, err := svc.ListByTenant(r.Context(), actor, tenantID)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}

		out := make([]horseResponse, 0, len(items))
		for _, h := range items {
			out = append(out, toHorseResponse(h))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getHorseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		h, err := svc.Get(r.Context(), actor, chi.URLParam(r, "horseID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toHorseResponse(h))
	}
}

func toHorseResponse(h Horse) horseResponse {
	return horseResponse{
		ID:        h.ID,
		TenantID:  h.TenantID,
		Name:      h.Name,
		Breed:     h.Breed,
		Sex:       h.Sex,
		Color:     h.Color,
		BirthDate: h.BirthDate,
		UELN:      h.UELN,
		Microchip: h.Microchip,
		Notes:     h.Notes,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
