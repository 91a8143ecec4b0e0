package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"

	"commhub/config"
	"commhub/models"
)

func testConfig(url string) *config.PushConfig {
	return &config.PushConfig{
		URL:               url,
		MinBackoffSeconds: 1,
		MaxBackoffSeconds: 2,
	}
}

// upstream is a minimal push endpoint for tests: it records connections and
// replays queued frames to whoever connects.
type upstream struct {
	srv      *httptest.Server
	connects chan *websocket.Conn
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{connects: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		u.connects <- conn
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) wsURL() string {
	return "ws" + strings.TrimPrefix(u.srv.URL, "http")
}

func (u *upstream) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-u.connects:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("manager never connected")
		return nil
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	up := newUpstream(t)
	m := NewManager(testConfig(up.wsURL()), "")

	ch, cancel := m.Subscribe("messages")
	defer cancel()

	conn := up.waitConn(t)
	defer conn.Close()

	evt := models.PushEvent{Collection: "messages", Type: models.EventNewMessage, Seq: 1}
	payload, _ := json.Marshal(evt)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case got := <-ch:
		if got.Collection != "messages" || got.Seq != 1 {
			t.Errorf("unexpected event %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestEventsRoutedByCollection(t *testing.T) {
	up := newUpstream(t)
	m := NewManager(testConfig(up.wsURL()), "")

	msgCh, cancelMsg := m.Subscribe("messages")
	defer cancelMsg()
	schedCh, cancelSched := m.Subscribe("schedules")
	defer cancelSched()

	conn := up.waitConn(t)
	defer conn.Close()

	for _, collection := range []string{"schedules", "messages"} {
		payload, _ := json.Marshal(models.PushEvent{Collection: collection, Type: models.EventNewMessage, Seq: 1})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	select {
	case got := <-schedCh:
		if got.Collection != "schedules" {
			t.Errorf("schedule subscriber got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("schedule event never delivered")
	}
	select {
	case got := <-msgCh:
		if got.Collection != "messages" {
			t.Errorf("message subscriber got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message event never delivered")
	}
}

func TestMalformedEnvelopesDropped(t *testing.T) {
	up := newUpstream(t)
	m := NewManager(testConfig(up.wsURL()), "")

	ch, cancel := m.Subscribe("messages")
	defer cancel()

	conn := up.waitConn(t)
	defer conn.Close()

	frames := [][]byte{
		[]byte("not json"),
		[]byte(`{"collection":"","type":"new_message"}`),
		[]byte(`{"collection":"messages","type":"new_message","seq":9}`),
	}
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, f); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	select {
	case got := <-ch:
		if got.Seq != 9 {
			t.Errorf("garbage frame leaked through: %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("valid event never delivered")
	}
}

func TestLastCancelClosesChannel(t *testing.T) {
	up := newUpstream(t)
	m := NewManager(testConfig(up.wsURL()), "")

	ch, cancel := m.Subscribe("messages")
	conn := up.waitConn(t)
	defer conn.Close()

	cancel()
	if _, open := <-ch; open {
		t.Error("cancel must close the subscriber channel")
	}
	cancel() // second cancel is a no-op

	// A fresh subscriber starts a fresh connection.
	_, cancel2 := m.Subscribe("messages")
	defer cancel2()
	up.waitConn(t)
}

func TestSendWhileDisconnectedIsDropped(t *testing.T) {
	m := NewManager(testConfig("ws://127.0.0.1:1/push"), "")
	// No subscribers, so no connection; must not panic or block.
	m.Send(models.NewMarkAsRead(5))
}
