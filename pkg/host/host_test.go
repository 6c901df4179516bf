package host

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestSlot(t *testing.T) {
	s := NewSlot()
	if s.Get() != nil {
		t.Fatal("new slot must be empty")
	}

	s.Set(map[string]interface{}{"destination": "Kyoto"})
	v, ok := s.Get().(map[string]interface{})
	if !ok || v["destination"] != "Kyoto" {
		t.Fatalf("unexpected slot value: %v", s.Get())
	}

	s.Clear()
	if s.Get() != nil {
		t.Fatal("cleared slot must be empty")
	}
}

func TestFuncSender(t *testing.T) {
	var got FollowUpMessage
	sender := FuncSender(func(ctx context.Context, msg FollowUpMessage) error {
		got = msg
		return nil
	})

	err := sender.SendFollowUpMessage(context.Background(), FollowUpMessage{Prompt: "book it"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Prompt != "book it" {
		t.Errorf("prompt not delivered, got %q", got.Prompt)
	}
}

// dialPair spins up a host page endpoint and connects a widget to it.
func dialPair(t *testing.T) (*Conn, *Page) {
	t.Helper()
	pages := make(chan *Page, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := Upgrade(w, r)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		pages <- p
	}))
	t.Cleanup(srv.Close)

	conn, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	select {
	case page := <-pages:
		t.Cleanup(func() { page.Close() })
		return conn, page
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func TestConnPageRoundTrip(t *testing.T) {
	conn, page := dialPair(t)

	// Host page pushes updated globals.
	err := page.SendSetGlobals(SetGlobalsEvent{
		Globals: Globals{ToolOutput: map[string]interface{}{"destination": "Lima"}},
	})
	if err != nil {
		t.Fatalf("SendSetGlobals failed: %v", err)
	}

	select {
	case ev := <-conn.Events():
		out, ok := ev.Globals.ToolOutput.(map[string]interface{})
		if !ok || out["destination"] != "Lima" {
			t.Fatalf("unexpected toolOutput: %v", ev.Globals.ToolOutput)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("set_globals event never arrived")
	}

	// Widget sends a follow-up back.
	if err := conn.SendFollowUpMessage(context.Background(), FollowUpMessage{Prompt: "Book Lima"}); err != nil {
		t.Fatalf("follow-up send failed: %v", err)
	}

	select {
	case msg := <-page.FollowUps():
		if msg.Prompt != "Book Lima" {
			t.Errorf("unexpected follow-up: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up never arrived")
	}
}

func TestConnKeepsNewestWhenBufferFull(t *testing.T) {
	conn, page := dialPair(t)

	// Push twice the buffer capacity without consuming anything.
	total := 2 * cap(conn.events)
	for i := 1; i <= total; i++ {
		err := page.SendSetGlobals(SetGlobalsEvent{
			Globals: Globals{ToolOutput: map[string]interface{}{
				"destination": fmt.Sprintf("city-%d", i),
			}},
		})
		if err != nil {
			t.Fatalf("SendSetGlobals %d failed: %v", i, err)
		}
	}

	// Let the read loop drain the socket before touching the channel.
	deadline := time.Now().Add(2 * time.Second)
	for len(conn.events) < cap(conn.events) && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	var got []string
	for {
		select {
		case ev := <-conn.events:
			out := ev.Globals.ToolOutput.(map[string]interface{})
			got = append(got, out["destination"].(string))
			continue
		default:
		}
		break
	}

	if len(got) == 0 {
		t.Fatal("no events buffered")
	}
	newest := fmt.Sprintf("city-%d", total)
	if got[len(got)-1] != newest {
		t.Fatalf("newest push must survive a full buffer, last buffered = %q", got[len(got)-1])
	}
	for _, dest := range got {
		if dest == "city-1" {
			t.Fatal("oldest push should have been discarded, not kept")
		}
	}
}

func TestConnIgnoresUnknownFrames(t *testing.T) {
	pages := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		pages <- ws
	}))
	defer srv.Close()

	conn, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	raw := <-pages
	defer raw.Close()

	for _, msg := range []string{
		"not json",
		`{"event":"something_else","payload":{}}`,
		`{"event":"openai:set_globals","payload":"not an object"}`,
		`{"event":"openai:set_globals","payload":{"globals":{"toolOutput":{"destination":"Oslo"}}}}`,
	} {
		if err := raw.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	// Only the last frame is a valid set_globals push.
	select {
	case ev := <-conn.Events():
		out, _ := ev.Globals.ToolOutput.(map[string]interface{})
		if out["destination"] != "Oslo" {
			t.Fatalf("expected the valid push, got %v", ev.Globals.ToolOutput)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid push never arrived")
	}

	select {
	case ev := <-conn.Events():
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseIdempotent(t *testing.T) {
	conn, page := dialPair(t)
	if err := conn.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	conn.Close()
	page.Close()
	page.Close()

	if err := conn.SendFollowUpMessage(context.Background(), FollowUpMessage{Prompt: "late"}); err == nil {
		t.Error("send after close must fail")
	}
}
