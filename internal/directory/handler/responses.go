package handler

import "hostguard/internal/directory/models"

// SaveClientResponse is returned by POST /api/clients.
type SaveClientResponse struct {
	Success  bool   `json:"success"`
	ClientID string `json:"client_id"`
	Created  bool   `json:"created"`
}

// SearchResponse is returned by POST /api/clients/search. Client is nil when nothing matched.
type SearchResponse struct {
	Found  bool           `json:"found"`
	Client *models.Client `json:"client,omitempty"`
}
