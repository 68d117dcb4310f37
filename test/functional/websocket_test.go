//go:build functional

package functional

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
)

func dial(t *testing.T, ts *TestServer) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(ts.WSURL, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func next(t *testing.T, conn *websocket.Conn) model.WebSocketMessage {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg model.WebSocketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error: %v", err)
	}
	return msg
}

func TestFunctional_WS_001_SnapshotOnConnect(t *testing.T) {
	ts := StartTestServer(t)
	AssertStatusCode(t, ts.Do(http.MethodPost, "/api/v1/items", itemBody{Name: "Rodillo", Category: "Pinturas", UnitPrice: 5, Stock: 3}, nil), http.StatusCreated)

	msg := next(t, dial(t, ts))

	if msg.Type != model.WSMessageTypeSnapshot || msg.Reason != model.SnapshotReasonConnected {
		t.Errorf("message = %s/%s", msg.Type, msg.Reason)
	}
	if msg.Inventory == nil || msg.Inventory.Count != 1 || msg.Inventory.Total != "15.00" {
		t.Errorf("inventory = %+v", msg.Inventory)
	}
}

func TestFunctional_WS_002_SnapshotPerMutation(t *testing.T) {
	ts := StartTestServer(t)
	conn := dial(t, ts)
	_ = next(t, conn)

	steps := []struct {
		method    string
		path      string
		body      any
		reason    string
		wantTotal string
	}{
		{http.MethodPost, "/api/v1/items", itemBody{Name: "Casco", Category: "Seguridad", UnitPrice: 8, Stock: 2}, model.SnapshotReasonCreated, "16.00"},
		{http.MethodPut, "/api/v1/items/1", itemBody{Name: "Casco", Category: "Seguridad", UnitPrice: 8, Stock: 5}, model.SnapshotReasonUpdated, "40.00"},
		{http.MethodPost, "/api/v1/import", "id,nombre,categoria,precio,stock,subtotal\n7,Gafas,Seguridad,2.00,5,10.00\n", model.SnapshotReasonImported, "50.00"},
		{http.MethodDelete, "/api/v1/items/1", nil, model.SnapshotReasonDeleted, "10.00"},
	}

	for _, step := range steps {
		resp := ts.Do(step.method, step.path, step.body, nil)
		if resp.StatusCode >= http.StatusBadRequest {
			t.Fatalf("%s %s status = %d; body %s", step.method, step.path, resp.StatusCode, resp.Body)
		}

		msg := next(t, conn)
		if msg.Reason != step.reason || msg.Inventory == nil || msg.Inventory.Total != step.wantTotal {
			t.Errorf("%s %s: reason %s total %+v, want %s %s", step.method, step.path, msg.Reason, msg.Inventory, step.reason, step.wantTotal)
		}
	}
}

func TestFunctional_WS_003_RejectedMutationIsSilent(t *testing.T) {
	ts := StartTestServer(t)
	conn := dial(t, ts)
	_ = next(t, conn)

	AssertStatusCode(t, ts.Do(http.MethodPost, "/api/v1/items", itemBody{Name: "", UnitPrice: 1, Stock: 1}, nil), http.StatusBadRequest)

	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var msg model.WebSocketMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Errorf("unexpected snapshot after a rejected mutation: %+v", msg)
	}
}
