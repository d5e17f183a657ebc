package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// fakeConn is an in-memory transport connection. Inbound messages are
// pushed through the in channel; writes are recorded for inspection.
type fakeConn struct {
	mu     sync.Mutex
	in     chan []byte
	closed bool
	writes []Action
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	msg, ok := <-c.in
	if !ok {
		return nil, errors.New("connection closed")
	}
	return msg, nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed connection")
	}
	if a, ok := v.(Action); ok {
		c.writes = append(c.writes, a)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.in)
	}
	return nil
}

// push injects an inbound event as the feed would send it.
func (c *fakeConn) push(t *testing.T, eventType string, payload any) {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		data = encoded
	}
	raw, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	c.in <- raw
}

func (c *fakeConn) actions() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Action, len(c.writes))
	copy(out, c.writes)
	return out
}

// fakeDialer fails the first failures dials (all of them when
// failures < 0), then hands out fresh fakeConns. Every dial attempt is
// signalled on dialed.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	conns    []*fakeConn
	count    int
	dialed   chan struct{}
}

func newFakeDialer(failures int) *fakeDialer {
	return &fakeDialer{failures: failures, dialed: make(chan struct{}, 32)}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++
	select {
	case d.dialed <- struct{}{}:
	default:
	}
	if d.failures < 0 || d.count <= d.failures {
		return nil, errors.New("dial refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.conns) {
		return nil
	}
	return d.conns[i]
}

func testConfig() Config {
	return Config{
		URL:         "ws://feed.test/ws/feed",
		BaseDelay:   time.Second,
		MaxAttempts: 5,
		// Pings disabled: these tests drive the clock manually.
	}
}

func waitDial(t *testing.T, d *fakeDialer) {
	t.Helper()
	select {
	case <-d.dialed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial attempt")
	}
}

func waitStatus(t *testing.T, states <-chan State, want Status) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case st := <-states:
			if st.Status == want {
				return st
			}
		case <-deadline:
			t.Fatalf("timed out waiting for status %q", want)
		}
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	dialer := newFakeDialer(0)
	m := NewManagerWith(testConfig(), dialer, clockwork.NewFakeClock())

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count = %d, want 1", got)
	}
	if st := m.State(); st.Status != StatusConnected {
		t.Errorf("status = %q, want connected", st.Status)
	}
}

func TestSubscribeBeforeConnectFails(t *testing.T) {
	m := NewManagerWith(testConfig(), newFakeDialer(0), clockwork.NewFakeClock())
	if err := m.SubscribeToGame("42"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeOpensBothChannels(t *testing.T) {
	dialer := newFakeDialer(0)
	m := NewManagerWith(testConfig(), dialer, clockwork.NewFakeClock())

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := m.SubscribeToGame("42"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	actions := dialer.conn(0).actions()
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want 2 subscribes", len(actions))
	}
	channels := map[string]bool{}
	for _, a := range actions {
		if a.Action != ActionSubscribe {
			t.Fatalf("action = %q, want subscribe", a.Action)
		}
		payload := a.Data.(SubscribePayload)
		if payload.GameID != "42" {
			t.Fatalf("game_id = %q, want 42", payload.GameID)
		}
		channels[payload.Channel] = true
	}
	if !channels[ChannelGame] || !channels[ChannelStats] {
		t.Fatalf("subscribed channels = %v, want game and stats", channels)
	}
}

func TestReconnectExhaustionIsPermanent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dialer := newFakeDialer(-1)
	m := NewManagerWith(testConfig(), dialer, clock)

	states := make(chan State, 32)
	m.OnStatusChange(func(st State) { states <- st })

	if err := m.Connect(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	waitDial(t, dialer)

	// Each failure doubles the delay: 1s, 2s, 4s, 8s.
	for i := 0; i < 4; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second << i)
		waitDial(t, dialer)
	}

	st := waitStatus(t, states, StatusError)
	if st.ReconnectAttempt != 5 {
		t.Errorf("reconnect attempt = %d, want 5", st.ReconnectAttempt)
	}
	if got := dialer.dialCount(); got != 5 {
		t.Errorf("dial count = %d, want 5", got)
	}

	// Permanent: no further attempts are scheduled.
	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	if got := dialer.dialCount(); got != 5 {
		t.Errorf("dial count after error = %d, want 5", got)
	}
}

func TestDisconnectCancelsPendingRetry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dialer := newFakeDialer(-1)
	m := NewManagerWith(testConfig(), dialer, clock)

	if err := m.Connect(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	waitDial(t, dialer)

	m.Disconnect()
	if st := m.State(); st.Status != StatusDisconnected {
		t.Fatalf("status = %q, want disconnected", st.Status)
	}

	clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dial count after disconnect = %d, want 1", got)
	}
}

func TestReconnectResubscribesGame(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dialer := newFakeDialer(0)
	m := NewManagerWith(testConfig(), dialer, clock)

	states := make(chan State, 32)
	m.OnStatusChange(func(st State) { states <- st })

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitDial(t, dialer)
	if err := m.SubscribeToGame("42"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	waitStatus(t, states, StatusConnected)

	// Simulate an unexpected server-side drop.
	dialer.conn(0).Close()
	waitStatus(t, states, StatusConnecting)

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	waitDial(t, dialer)
	waitStatus(t, states, StatusConnected)

	if st := m.State(); st.ReconnectAttempt != 0 {
		t.Errorf("reconnect attempt = %d, want 0 after success", st.ReconnectAttempt)
	}

	// The previously subscribed game is re-subscribed on the new conn.
	deadline := time.After(2 * time.Second)
	for {
		conn := dialer.conn(1)
		if conn != nil && len(conn.actions()) >= 2 {
			for _, a := range conn.actions() {
				if a.Action != ActionSubscribe {
					t.Fatalf("action = %q, want subscribe", a.Action)
				}
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for resubscribe")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDispatchIsolatesPanickingHandler(t *testing.T) {
	dialer := newFakeDialer(0)
	m := NewManagerWith(testConfig(), dialer, clockwork.NewFakeClock())

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	received := make(chan json.RawMessage, 1)
	m.On(EventStatUpdate, func(data json.RawMessage) {
		panic("handler bug")
	})
	m.On(EventStatUpdate, func(data json.RawMessage) {
		received <- data
	})

	dialer.conn(0).push(t, EventStatUpdate, map[string]any{"stats": []any{}})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("sibling handler was not invoked after panic")
	}

	// The connection survives the panic.
	if st := m.State(); st.Status != StatusConnected {
		t.Errorf("status = %q, want connected", st.Status)
	}
}

func TestOffRemovesHandlers(t *testing.T) {
	dialer := newFakeDialer(0)
	m := NewManagerWith(testConfig(), dialer, clockwork.NewFakeClock())

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	first := make(chan struct{}, 4)
	second := make(chan struct{}, 4)
	idFirst := m.On(EventTimerUpdate, func(json.RawMessage) { first <- struct{}{} })
	m.On(EventTimerUpdate, func(json.RawMessage) { second <- struct{}{} })

	conn := dialer.conn(0)

	m.Off(EventTimerUpdate, idFirst)
	conn.push(t, EventTimerUpdate, TimerUpdatePayload{TimeRemainingSeconds: 100})
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("remaining handler was not invoked")
	}
	select {
	case <-first:
		t.Fatal("removed handler was invoked")
	case <-time.After(20 * time.Millisecond):
	}

	// Off without IDs clears every handler for the event.
	m.Off(EventTimerUpdate)
	conn.push(t, EventTimerUpdate, TimerUpdatePayload{TimeRemainingSeconds: 50})
	select {
	case <-second:
		t.Fatal("cleared handler was invoked")
	case <-time.After(20 * time.Millisecond):
	}
}
