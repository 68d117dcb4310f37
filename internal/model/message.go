package model

import "time"

// WebSocketMessage represents a message sent over WebSocket connection.
type WebSocketMessage struct {
	Type      string         `json:"type"`
	Reason    string         `json:"reason,omitempty"`
	Inventory *InventoryPage `json:"inventory,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// WSMessageTypeSnapshot is the only message type the feed sends.
const WSMessageTypeSnapshot = "inventory_snapshot"

// Snapshot reasons.
const (
	SnapshotReasonConnected = "connected"
	SnapshotReasonCreated   = "created"
	SnapshotReasonUpdated   = "updated"
	SnapshotReasonDeleted   = "deleted"
	SnapshotReasonImported  = "imported"
)

// NewSnapshotMessage creates a message carrying the full, unfiltered inventory.
func NewSnapshotMessage(reason string, page InventoryPage) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypeSnapshot,
		Reason:    reason,
		Inventory: &page,
		Timestamp: time.Now().UTC(),
	}
}
