package roomchat

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// handle is the single live transport. Only the manager holds it.
type handle struct {
	id      string
	room    string
	conn    Conn // nil until the open turn
	ctx     context.Context
	cancel  context.CancelFunc
	writeCh chan []byte

	// closed is closed once the transport is fully torn down, so the next dial
	// never overlaps it.
	closed    chan struct{}
	closeOnce sync.Once
}

func newHandle(room string, buffer int) *handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &handle{
		id:      uuid.NewString(),
		room:    room,
		ctx:     ctx,
		cancel:  cancel,
		writeCh: make(chan []byte, buffer),
		closed:  make(chan struct{}),
	}
}

// teardown cancels I/O, closes the transport if it was opened and marks the
// handle closed. Safe to call more than once and from any goroutine.
func (h *handle) teardown() {
	h.closeOnce.Do(func() {
		h.cancel()
		if h.conn != nil {
			_ = h.conn.Close()
		}
		close(h.closed)
	})
}

// retry is a scheduled reconnect. The manager only honours the one it holds.
type retry struct {
	timer Timer
}

// manager drives the connect/disconnect/reconnect state machine. All methods
// except the I/O goroutines run on the loop.
type manager struct {
	cfg     Config
	dialer  Dialer
	clock   Clock
	loop    *loop
	logger  Logger
	metrics Metrics
	view    View
	onEvent func(IncomingEvent)

	state      ConnectionState
	current    *handle
	pending    *retry
	lastClosed <-chan struct{}
	room       string
	username   string
}

// connect opens a transport to room unless one is already opening or open.
// An explicit connect while a retry is pending replaces the retry.
func (m *manager) connect(room, username string) {
	m.username = username
	if m.state == StateConnecting || m.state == StateConnected {
		return
	}
	m.cancelRetry()
	m.room = room

	url, err := m.cfg.Endpoint(room)
	if err != nil {
		m.logger.Error("build endpoint", map[string]any{"room": room, "error": err.Error()})
		m.reportError(nil, err)
		m.setState(StateDisconnected, nil, err)
		return
	}

	h := newHandle(room, m.cfg.SendBuffer)
	prev := m.lastClosed
	m.current = h
	m.lastClosed = h.closed
	m.setState(StateConnecting, h, nil)
	go m.dial(h, url, prev)
}

// disconnect tears down the live transport and cancels any pending retry.
// The closure it causes never schedules a reconnect.
func (m *manager) disconnect() {
	m.cancelRetry()
	h := m.current
	if h != nil {
		m.current = nil
		m.release(h)
	}
	m.setState(StateDisconnected, h, nil)
}

// send encodes msg and queues it on the live transport's ordered writer.
func (m *manager) send(msg OutgoingMessage) error {
	h := m.current
	if m.state != StateConnected || h == nil || h.ctx.Err() != nil {
		return ErrNotConnected
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	select {
	case h.writeCh <- data:
		m.metrics.FrameSent()
		return nil
	default:
		return NewError(ErrorSendBufferFull, "send buffer full")
	}
}

// dial waits for the previous handle to be fully torn down, even if h is
// cancelled meanwhile, so handles close strictly in creation order.
func (m *manager) dial(h *handle, url string, prev <-chan struct{}) {
	if prev != nil {
		<-prev
	}
	var (
		conn Conn
		err  error
	)
	if err = h.ctx.Err(); err == nil {
		conn, err = m.dialer.Dial(h.ctx, url)
	}
	if !m.loop.post(func() { m.opened(h, conn, err) }) {
		h.conn = conn
		h.teardown()
	}
}

func (m *manager) opened(h *handle, conn Conn, err error) {
	if h != m.current {
		// disconnected while dialing
		h.conn = conn
		go h.teardown()
		return
	}
	if err != nil {
		m.reportError(h, transportError(ErrorConnection, "open transport", err))
		m.current = nil
		h.teardown()
		m.dropped(h, err)
		return
	}

	h.conn = conn
	m.logger.Info("connected", map[string]any{"room": h.room, "conn_id": h.id})
	m.setState(StateConnected, h, nil)
	go m.readLoop(h)
	go m.writeLoop(h)

	if err := m.send(Identify{Username: m.username}); err != nil {
		m.logger.Error("identify", map[string]any{"conn_id": h.id, "error": err.Error()})
	}
}

func (m *manager) received(h *handle, data []byte) {
	if h != m.current {
		return
	}
	ev, ok := Decode(data)
	if !ok {
		m.metrics.FrameDropped()
		m.logger.Debug("dropped frame", map[string]any{"conn_id": h.id, "size": len(data)})
		return
	}
	m.metrics.FrameReceived(eventKind(ev))
	m.onEvent(ev)
}

func (m *manager) closed(h *handle, err error) {
	if h != m.current {
		return
	}
	if !isExpectedDisconnect(h.ctx, err) {
		m.reportError(h, transportError(ErrorDisconnected, "connection lost", err))
	}
	m.current = nil
	m.release(h)
	m.dropped(h, err)
}

func (m *manager) writeFailed(h *handle, err error) {
	if h != m.current {
		return
	}
	m.reportError(h, transportError(ErrorConnection, "write frame", err))
	// send refuses from here on; the read loop observes the cancel and drives
	// the transition
	h.cancel()
	go func() { _ = h.conn.Close() }()
}

// dropped handles a closure nobody asked for: go Disconnected, then schedule
// exactly one retry if we still know who we are.
func (m *manager) dropped(h *handle, cause error) {
	m.logger.Info("disconnected", map[string]any{"room": h.room, "conn_id": h.id})
	m.setState(StateDisconnected, h, cause)
	if m.username == "" {
		return
	}
	r := &retry{}
	r.timer = m.clock.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.loop.post(func() { m.fireRetry(r) })
	})
	m.pending = r
	m.metrics.ReconnectScheduled(m.room)
	m.logger.Info("reconnect scheduled", map[string]any{"room": m.room, "delay": m.cfg.ReconnectDelay.String()})
	m.setState(StateReconnecting, nil, nil)
}

func (m *manager) fireRetry(r *retry) {
	if m.pending != r {
		// cancelled after the timer had already queued this turn
		return
	}
	m.pending = nil
	if m.username == "" {
		m.setState(StateDisconnected, nil, nil)
		return
	}
	m.connect(m.room, m.username)
}

func (m *manager) cancelRetry() {
	if m.pending == nil {
		return
	}
	m.pending.timer.Stop()
	m.pending = nil
}

func (m *manager) release(h *handle) {
	h.cancel()
	if h.conn == nil {
		// the open turn for this handle tears it down
		return
	}
	go h.teardown()
}

func (m *manager) readLoop(h *handle) {
	for {
		data, err := h.conn.Read(h.ctx)
		if err != nil {
			m.loop.post(func() { m.closed(h, err) })
			return
		}
		m.loop.post(func() { m.received(h, data) })
	}
}

func (m *manager) writeLoop(h *handle) {
	for {
		select {
		case data := <-h.writeCh:
			if err := h.conn.Write(h.ctx, data); err != nil {
				if h.ctx.Err() == nil {
					m.loop.post(func() { m.writeFailed(h, err) })
				}
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

func (m *manager) setState(next ConnectionState, h *handle, cause error) {
	prev := m.state
	if prev == next {
		return
	}
	m.state = next
	ev := StatusEvent{Old: prev, New: next, Room: m.room, Err: cause}
	if h != nil {
		ev.ConnID = h.id
	}
	m.metrics.StateChanged(prev.String(), next.String())
	m.logger.Debug("state changed", map[string]any{"from": prev.String(), "to": next.String(), "room": m.room})
	m.view.OnStatusChange(ev)
}

// reportError surfaces a transport error without changing state.
func (m *manager) reportError(h *handle, err error) {
	ev := StatusEvent{Old: m.state, New: m.state, Room: m.room, Err: err}
	if h != nil {
		ev.ConnID = h.id
	}
	m.logger.Warn("transport error", map[string]any{"room": m.room, "conn_id": ev.ConnID, "error": err.Error()})
	m.view.OnStatusChange(ev)
}

func eventKind(ev IncomingEvent) string {
	switch ev.(type) {
	case ChatMessage:
		return typeChatMessage
	case UserJoined:
		return typeUserJoined
	case UserLeft:
		return typeUserLeft
	case RoomInfo:
		return typeRoomInfo
	default:
		return "unknown"
	}
}
