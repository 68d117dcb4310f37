// Package handler provides the HTTP and WebSocket surface over the inventory store.
package handler

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	// Items is the number of live items.
	Items int `json:"items"`
}
