package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	v1 "opsboard/shared/contracts/changefeed/v1"
)

func newGatewayServer(t *testing.T) (*WSGateway, *httptest.Server) {
	t.Helper()

	// httptest clients carry no Origin header.
	t.Setenv("OPSBOARD_WS_ORIGIN_REQUIRED", "false")

	g := NewWSGateway(nil, NewHub(nil, nil), nil, nil)
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)
	return g, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// waitForMembers blocks until the hub has n members; join is asynchronous
// relative to the client's dial returning.
func waitForMembers(t *testing.T, h *Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for h.Members() < n {
		if time.Now().After(deadline) {
			t.Fatalf("hub members = %d, want %d", h.Members(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dialFeed(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), &websocket.DialOptions{
		Subprotocols: []string{wsSubprotocolV1},
		HTTPClient:   srv.Client(),
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func sendEnv(t *testing.T, ctx context.Context, conn *websocket.Conn, env v1.Envelope) {
	t.Helper()

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		t.Fatalf("write envelope: %v", err)
	}
}

func recvEnv(t *testing.T, ctx context.Context, conn *websocket.Conn) v1.Envelope {
	t.Helper()

	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	var env v1.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return env
}

func TestGatewayRejectsMissingSubprotocol(t *testing.T) {
	_, srv := newGatewayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), &websocket.DialOptions{
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, _, err = conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusProtocolError {
		t.Fatalf("close status = %v (err %v), want protocol error", websocket.CloseStatus(err), err)
	}
}

func TestGatewayEchoesPingToSender(t *testing.T) {
	_, srv := newGatewayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialFeed(t, ctx, srv)
	sendEnv(t, ctx, conn, v1.Envelope{V: v1.Version, Type: v1.TypePing})

	env := recvEnv(t, ctx, conn)
	if env.Type != v1.TypePing {
		t.Fatalf("reply type = %q, want ping", env.Type)
	}
	if env.ID == "" {
		t.Fatal("reply has no id")
	}
}

func TestGatewayBroadcastsClientPublicationToPeers(t *testing.T) {
	g, srv := newGatewayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender := dialFeed(t, ctx, srv)
	peer := dialFeed(t, ctx, srv)
	waitForMembers(t, g.Hub(), 2)

	payload, _ := json.Marshal(v1.RecordPayload{Record: json.RawMessage(`{"id":1,"title":"t"}`)})
	sendEnv(t, ctx, sender, v1.Envelope{
		V:       v1.Version,
		Type:    v1.TypeTaskCreated,
		Payload: payload,
	})

	env := recvEnv(t, ctx, peer)
	if env.Type != v1.TypeTaskCreated {
		t.Fatalf("peer got type %q", env.Type)
	}

	// The sender must not hear its own publication; a subsequent ping is the
	// next thing it reads.
	sendEnv(t, ctx, sender, v1.Envelope{V: v1.Version, Type: v1.TypePing})
	if env := recvEnv(t, ctx, sender); env.Type != v1.TypePing {
		t.Fatalf("sender got type %q, want its ping echo", env.Type)
	}
}

func TestGatewayServerPublishReachesClients(t *testing.T) {
	g, srv := newGatewayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialFeed(t, ctx, srv)
	waitForMembers(t, g.Hub(), 1)

	g.Hub().Publish(v1.TypeKBDeleted, v1.DeletedPayload{ID: 7})

	env := recvEnv(t, ctx, conn)
	if env.Type != v1.TypeKBDeleted {
		t.Fatalf("got type %q", env.Type)
	}
	var p v1.DeletedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.ID != 7 {
		t.Fatalf("deleted id = %d", p.ID)
	}
}

func TestGatewayRejectsInvalidEnvelope(t *testing.T) {
	_, srv := newGatewayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialFeed(t, ctx, srv)
	sendEnv(t, ctx, conn, v1.Envelope{V: v1.Version, Type: "task.exploded"})

	env := recvEnv(t, ctx, conn)
	if env.Type != v1.TypeError {
		t.Fatalf("got type %q, want error", env.Type)
	}
	var p v1.ErrorPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Code != "bad_envelope" {
		t.Fatalf("code = %q", p.Code)
	}
}

func TestGatewayRejectsClientErrorEnvelopes(t *testing.T) {
	_, srv := newGatewayServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialFeed(t, ctx, srv)
	sendEnv(t, ctx, conn, v1.Envelope{V: v1.Version, Type: v1.TypeError})

	env := recvEnv(t, ctx, conn)
	if env.Type != v1.TypeError {
		t.Fatalf("got type %q, want error", env.Type)
	}
	var p v1.ErrorPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Code != "unsupported" {
		t.Fatalf("code = %q", p.Code)
	}
}
