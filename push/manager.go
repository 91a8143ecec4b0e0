package push

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"commhub/config"
	"commhub/models"
	"commhub/utils"
)

// subscriber buffer; a slow consumer loses events rather than stalling the
// reader (the next fetch restores consistency)
const subscriberBuffer = 64

// Manager owns the single upstream push connection shared by every
// collection. It connects when the first subscriber appears, disconnects when
// the last one leaves, and reconnects with exponential backoff in between.
// Collections multiplex over the one socket via the envelope's collection
// discriminator; no raw connection handle is exposed.
type Manager struct {
	url        string
	header     http.Header
	dialer     *websocket.Dialer
	minBackoff time.Duration
	maxBackoff time.Duration
	log        *utils.Logger

	mu          sync.Mutex
	subscribers map[string]map[int64]chan models.PushEvent
	nextSubID   int64
	refs        int
	sendCh      chan interface{}
	stopCh      chan struct{}
	running     bool
}

// NewManager creates a push manager for the configured channel endpoint.
func NewManager(cfg *config.PushConfig, token string) *Manager {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &Manager{
		url:    cfg.URL,
		header: header,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		minBackoff:  cfg.MinBackoff(),
		maxBackoff:  cfg.MaxBackoff(),
		log:         utils.Log.WithField("component", "push"),
		subscribers: make(map[string]map[int64]chan models.PushEvent),
	}
}

// Subscribe registers for one collection's events. The first subscriber
// starts the connection; the returned cancel function unregisters, and the
// last cancellation tears the connection down.
func (m *Manager) Subscribe(collection string) (<-chan models.PushEvent, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	ch := make(chan models.PushEvent, subscriberBuffer)

	if m.subscribers[collection] == nil {
		m.subscribers[collection] = make(map[int64]chan models.PushEvent)
	}
	m.subscribers[collection][id] = ch

	m.refs++
	if m.refs == 1 {
		m.stopCh = make(chan struct{})
		m.sendCh = make(chan interface{}, 16)
		m.running = true
		go m.run(m.stopCh, m.sendCh)
	}

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subscribers[collection]
		if _, ok := subs[id]; !ok {
			return
		}
		delete(subs, id)
		close(ch)
		m.refs--
		if m.refs == 0 && m.running {
			close(m.stopCh)
			m.running = false
		}
	}
	return ch, cancel
}

// Send queues a client-originated control message, e.g. a mark_as_read
// announcement. Messages are dropped with a warning while disconnected; the
// REST call remains the source of truth.
func (m *Manager) Send(v interface{}) {
	m.mu.Lock()
	ch := m.sendCh
	running := m.running
	m.mu.Unlock()

	if !running {
		m.log.Warn("Dropping control message: push channel not connected")
		return
	}
	select {
	case ch <- v:
	default:
		m.log.Warn("Dropping control message: send queue full")
	}
}

// run is the connection supervisor: dial, pump, tear down, back off, repeat.
func (m *Manager) run(stop chan struct{}, send chan interface{}) {
	backoff := m.minBackoff
	for {
		select {
		case <-stop:
			return
		default:
		}

		conn, _, err := m.dialer.Dial(m.url, m.header)
		if err != nil {
			m.log.Warn("Push channel dial failed: %v (retrying in %s)", err, backoff)
			select {
			case <-stop:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > m.maxBackoff {
				backoff = m.maxBackoff
			}
			continue
		}

		m.log.Info("Push channel connected to %s", m.url)
		backoff = m.minBackoff
		m.pump(conn, stop, send)
		conn.Close()

		select {
		case <-stop:
			return
		default:
			m.log.Warn("Push channel disconnected, reconnecting")
		}
	}
}

// pump runs the read and write sides of one live connection until either
// fails or the manager stops.
func (m *Manager) pump(conn *websocket.Conn, stop chan struct{}, send chan interface{}) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			m.dispatch(data)
		}
	}()

	for {
		select {
		case <-stop:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-done:
			return
		case msg := <-send:
			if err := conn.WriteJSON(msg); err != nil {
				m.log.Error("Push channel write failed: %v", err)
				return
			}
		}
	}
}

// dispatch decodes one envelope and fans it out to the collection's
// subscribers. Malformed envelopes are dropped and logged, never surfaced.
func (m *Manager) dispatch(data []byte) {
	var evt models.PushEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		m.log.Warn("Dropping malformed push envelope: %v", err)
		return
	}
	if evt.Collection == "" || evt.Type == "" {
		m.log.Warn("Dropping push envelope without collection/type")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subscribers[evt.Collection] {
		select {
		case ch <- evt:
		default:
			m.log.Warn("Push subscriber %d for %s is full, dropping event seq=%d",
				id, evt.Collection, evt.Seq)
		}
	}
}
