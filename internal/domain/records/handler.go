package records

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/horses/{horseID}/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc))
		rr.Get("/", listRecordsHandler(svc))
		rr.Post("/{recordID}/void", voidRecordHandler(svc))
	})
}

// createRecordRequest es el cuerpo para registrar un record del historial.
type createRecordRequest struct {
	Category    string `json:"category" validate:"required,oneof=veterinary laboratory files"`
	Kind        string `json:"kind" validate:"max=60"`
	OccurredAt  string `json:"occurred_at" validate:"required"` // RFC3339
	Title       string `json:"title" validate:"required,max=200"`
	Notes       string `json:"notes"`
	FileName    string `json:"file_name" validate:"max=255"`
	ContentType string `json:"content_type" validate:"max=120"`
	StorageKey  string `json:"storage_key" validate:"max=500"`
}

// recordResponse es un record del historial devuelto por la API.
type recordResponse struct {
	ID          string         `json:"id"`
	HorseID     string         `json:"horse_id"`
	Category    scope.Category `json:"category"`
	Kind        string         `json:"kind,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	RecordedAt  time.Time      `json:"recorded_at"`
	Title       string         `json:"title"`
	Notes       string         `json:"notes,omitempty"`
	FileName    string         `json:"file_name,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	StorageKey  string         `json:"storage_key,omitempty"`
	Status      Status         `json:"status"`
}

// createRecordHandler godoc
// @Summary Registrar record de un caballo
// @Description Agrega un record veterinario, de laboratorio o archivo al historial. Sólo miembros del tenant dueño.
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Tenant-IDs header string false "Solo en modo dev, tenants del usuario (CSV)"
// @Param Authorization header string false "Bearer token en producción"
// @Param horseID path string true "ID del caballo"
// @Param payload body createRecordRequest true "Datos del record; occurred_at en RFC3339"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "horse not found"
// @Router /horses/{horseID}/records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
			return
		}

		rec, err := svc.Create(r.Context(), actor, chi.URLParam(r, "horseID"), CreateInput{
			Category:    scope.Category(req.Category),
			Kind:        req.Kind,
			OccurredAt:  t,
			Title:       req.Title,
			Notes:       req.Notes,
			FileName:    req.FileName,
			ContentType: req.ContentType,
			StorageKey:  req.StorageKey,
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// listRecordsHandler godoc
// @Summary Listar records de un caballo
// @Tags records
// @Produce json
// @Param horseID path string true "ID del caballo"
// @Param category query string false "veterinary, laboratory o files (CSV)"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Param limit query int false "máximo de items (default 50, max 500)"
// @Success 200 {array} recordResponse
// @Router /horses/{horseID}/records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		var filter Filter
		for _, raw := range strings.Split(q.Get("category"), ",") {
			if strings.TrimSpace(raw) == "" {
				continue
			}
			cat, ok := scope.ParseCategory(raw)
			if !ok {
				http.Error(w, "unknown category", http.StatusBadRequest)
				return
			}
			filter.Categories = append(filter.Categories, cat)
		}

		var err error
		if filter.From, err = parseDay(q.Get("from")); err != nil {
			http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if filter.To, err = parseDay(q.Get("to")); err != nil {
			http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if filter.To != nil {
			filter.To = scope.Descriptor{To: filter.To}.UpperBound()
		}
		if v := strings.TrimSpace(q.Get("limit")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "limit must be a number", http.StatusBadRequest)
				return
			}
			filter.Limit = n
		}

		items, err := svc.List(r.Context(), actor, chi.URLParam(r, "horseID"), filter)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func voidRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.Void(r.Context(), actor, chi.URLParam(r, "horseID"), chi.URLParam(r, "recordID")); err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseDay(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		HorseID:     rec.HorseID,
		Category:    rec.Category,
		Kind:        rec.Kind,
		OccurredAt:  rec.OccurredAt,
		RecordedAt:  rec.RecordedAt,
		Title:       rec.Title,
		Notes:       rec.Notes,
		FileName:    rec.FileName,
		ContentType: rec.ContentType,
		StorageKey:  rec.StorageKey,
		Status:      rec.Status,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
