package connections

import (
	"encoding/json"
	"net/http"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/connections", func(cr chi.Router) {
		cr.Post("/", createConnectionHandler(svc))
		cr.Get("/", listConnectionsHandler(svc))

		// Handshake por token
		cr.Post("/accept", acceptConnectionHandler(svc))
		cr.Post("/reject", rejectConnectionHandler(svc))

		cr.Get("/{connectionID}", getConnectionHandler(svc))
		cr.Post("/{connectionID}/revoke", revokeConnectionHandler(svc))
		cr.Get("/{connectionID}/audit", connectionAuditHandler(svc))
	})
}

type createConnectionRequest struct {
	InitiatorTenantID string `json:"initiator_tenant_id"`
	RecipientTenantID string `json:"recipient_tenant_id" validate:"required_without=RecipientEmail"`
	RecipientEmail    string `json:"recipient_email" validate:"omitempty,email"`
	Type              string `json:"type" validate:"max=40"`
}

type handshakeRequest struct {
	Token    string `json:"token" validate:"required"`
	TenantID string `json:"tenant_id"`
	Reason   string `json:"reason" validate:"max=500"`
}

type connectionResponse struct {
	ID                string     `json:"id"`
	InitiatorTenantID string     `json:"initiator_tenant_id"`
	RecipientTenantID string     `json:"recipient_tenant_id,omitempty"`
	RecipientEmail    string     `json:"recipient_email,omitempty"`
	Type              Type       `json:"type"`
	State             State      `json:"state"`
	RejectReason      string     `json:"reject_reason,omitempty"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	RespondedBy       string     `json:"responded_by,omitempty"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`
	RevokedBy         string     `json:"revoked_by,omitempty"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
}

type issuedResponse struct {
	connectionResponse
	Token string `json:"token"`
}

// createConnectionHandler godoc
// @Summary Solicitar conexión con otro tenant
// @Description Crea una conexión pending y devuelve el token de handshake (una única vez). Falla con 409 si ya hay una activa para el mismo par y tipo.
// @Tags connections
// @Accept json
// @Produce json
// @Param payload body createConnectionRequest true "Conexión"
// @Success 201 {object} issuedResponse
// @Failure 400 {string} string "validación"
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "duplicate active connection"
// @Router /connections [post]
func createConnectionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createConnectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		issued, err := svc.Create(r.Context(), actor, CreateInput{
			InitiatorTenantID: actor.TenantOrDefault(req.InitiatorTenantID),
			RecipientTenantID: req.RecipientTenantID,
			RecipientEmail:    req.RecipientEmail,
			Type:              Type(req.Type),
		})
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusCreated, issuedResponse{
			connectionResponse: toConnectionResponse(issued.Connection),
			Token:              issued.Token,
		})
	}
}

func listConnectionsHandler(svc *Service) http.HandlerFunc {
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
		out := make([]connectionResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toConnectionResponse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// acceptConnectionHandler godoc
// @Summary Aceptar conexión
// @Description Sólo un manager del tenant destinatario. pending -> accepted; cualquier otro estado es 409.
// @Tags connections
// @Accept json
// @Produce json
// @Param payload body handshakeRequest true "Token de handshake"
// @Success 200 {object} connectionResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "connection not found"
// @Failure 409 {string} string "invalid state"
// @Router /connections/accept [post]
func acceptConnectionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req handshakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c, err := svc.Accept(r.Context(), actor, req.Token, req.TenantID)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toConnectionResponse(c))
	}
}

func rejectConnectionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req handshakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c, err := svc.Reject(r.Context(), actor, req.Token, req.TenantID, req.Reason)
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toConnectionResponse(c))
	}
}

func getConnectionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		c, err := svc.Get(r.Context(), actor, chi.URLParam(r, "connectionID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toConnectionResponse(c))
	}
}

// revokeConnectionHandler godoc
// @Summary Revocar conexión
// @Description Cualquiera de las partes. accepted -> revoked; todos los grants de la conexión dejan de ser efectivos.
// @Tags connections
// @Produce json
// @Param connectionID path string true "ID de la conexión"
// @Success 200 {object} connectionResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "invalid state"
// @Router /connections/{connectionID}/revoke [post]
func revokeConnectionHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		c, err := svc.Revoke(r.Context(), actor, chi.URLParam(r, "connectionID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, toConnectionResponse(c))
	}
}

func connectionAuditHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.Audit(r.Context(), actor, chi.URLParam(r, "connectionID"))
		if err != nil {
			http.Error(w, apperr.Message(err), apperr.Status(err))
			return
		}
		writeJSON(w, http.StatusOK, audit.ToResponses(items))
	}
}

func toConnectionResponse(c Connection) connectionResponse {
	return connectionResponse{
		ID:                c.ID,
		InitiatorTenantID: c.InitiatorTenantID,
		RecipientTenantID: c.RecipientTenantID,
		RecipientEmail:    c.RecipientEmail,
		Type:              c.Type,
		State:             c.State,
		RejectReason:      c.RejectReason,
		CreatedBy:         c.CreatedBy,
		CreatedAt:         c.CreatedAt,
		RespondedBy:       c.RespondedBy,
		RespondedAt:       c.RespondedAt,
		RevokedBy:         c.RevokedBy,
		RevokedAt:         c.RevokedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
