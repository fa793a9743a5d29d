package audit

import (
	"time"

	"stable-sharing/internal/domain/scope"
)

// EntryResponse es la forma JSON de una entrada; la usan los handlers de
// shares y connections.
type EntryResponse struct {
	ID           string            `json:"id"`
	ShareID      string            `json:"share_id,omitempty"`
	ConnectionID string            `json:"connection_id,omitempty"`
	GrantID      string            `json:"grant_id,omitempty"`
	Actor        string            `json:"actor"`
	Kind         Kind              `json:"kind"`
	At           time.Time         `json:"at"`
	Scope        *scope.Descriptor `json:"scope,omitempty"`
	Detail       string            `json:"detail,omitempty"`
}

func ToResponses(items []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, EntryResponse{
			ID:           e.ID,
			ShareID:      e.ShareID,
			ConnectionID: e.ConnectionID,
			GrantID:      e.GrantID,
			Actor:        e.Actor,
			Kind:         e.Kind,
			At:           e.At,
			Scope:        e.Scope,
			Detail:       e.Detail,
		})
	}
	return out
}
