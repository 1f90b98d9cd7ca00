package roomchat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// journal records transport calls across all fake connections in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeConn struct {
	url     string
	journal *journal

	in     chan []byte
	closed chan struct{}
	once   sync.Once
	gate   <-chan struct{} // when set, Close blocks until it is closed

	mu      sync.Mutex
	sent    []string
	dropErr error
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		c.mu.Lock()
		err := c.dropErr
		c.mu.Unlock()
		if err == nil {
			err = io.EOF
		}
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("write on closed conn")
	default:
	}
	c.mu.Lock()
	c.sent = append(c.sent, string(data))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() {
		if c.gate != nil {
			c.journal.add("closing %s", c.url)
			<-c.gate
		}
		c.journal.add("close %s", c.url)
		close(c.closed)
	})
	return nil
}

// push delivers a frame from the server.
func (c *fakeConn) push(frame string) { c.in <- []byte(frame) }

// drop simulates the server or network closing the connection.
func (c *fakeConn) drop(err error) {
	c.mu.Lock()
	c.dropErr = err
	c.mu.Unlock()
	c.once.Do(func() {
		c.journal.add("drop %s", c.url)
		close(c.closed)
	})
}

func (c *fakeConn) frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	journal *journal

	mu    sync.Mutex
	conns []*fakeConn
	fail  error
	gates map[string]chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.journal.add("dial %s", url)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return nil, d.fail
	}
	c := &fakeConn{
		url:     url,
		journal: d.journal,
		in:      make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
	if g, ok := d.gates[url]; ok {
		c.gate = g
	}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) setFail(err error) {
	d.mu.Lock()
	d.fail = err
	d.mu.Unlock()
}

// holdClose makes Close on connections to url block until the returned
// func is called. The func is also registered as a test cleanup.
func (d *fakeDialer) holdClose(t *testing.T, url string) func() {
	g := make(chan struct{})
	d.mu.Lock()
	if d.gates == nil {
		d.gates = make(map[string]chan struct{})
	}
	d.gates[url] = g
	d.mu.Unlock()
	var once sync.Once
	release := func() { once.Do(func() { close(g) }) }
	t.Cleanup(release)
	return release
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

// manualClock fires timers only when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// pending returns timers that have neither fired nor been stopped.
func (c *manualClock) pending() []*manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (c *manualClock) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// fireAll runs every pending timer.
func (c *manualClock) fireAll() {
	for _, t := range c.pending() {
		t.fire()
	}
}

func (t *manualTimer) fire() {
	t.clock.mu.Lock()
	if t.stopped || t.fired {
		t.clock.mu.Unlock()
		return
	}
	t.fired = true
	t.clock.mu.Unlock()
	t.fn()
}

// recordingView captures everything the session renders.
type recordingView struct {
	mu       sync.Mutex
	statuses []StatusEvent
	messages []string
	rosters  [][]RosterEntry
	rooms    []string
}

func (v *recordingView) OnStatusChange(ev StatusEvent) {
	v.mu.Lock()
	v.statuses = append(v.statuses, ev)
	v.mu.Unlock()
}

func (v *recordingView) OnChatMessage(username, text, timestamp string) {
	v.mu.Lock()
	v.messages = append(v.messages, fmt.Sprintf("%s: %s @%s", username, text, timestamp))
	v.mu.Unlock()
}

func (v *recordingView) OnSystemMessage(text string) {
	v.mu.Lock()
	v.messages = append(v.messages, "* "+text)
	v.mu.Unlock()
}

func (v *recordingView) OnRosterUpdate(entries []RosterEntry) {
	v.mu.Lock()
	v.rosters = append(v.rosters, entries)
	v.mu.Unlock()
}

func (v *recordingView) OnRoomChanged(room string) {
	v.mu.Lock()
	v.rooms = append(v.rooms, room)
	v.messages = nil
	v.mu.Unlock()
}

func (v *recordingView) messageList() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.messages...)
}

func (v *recordingView) transitions() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for _, ev := range v.statuses {
		if ev.Transition() {
			out = append(out, ev.Old.String()+"->"+ev.New.String())
		}
	}
	return out
}

func (v *recordingView) transportErrors() []error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []error
	for _, ev := range v.statuses {
		if !ev.Transition() && ev.Err != nil {
			out = append(out, ev.Err)
		}
	}
	return out
}

func (v *recordingView) lastRoster() []RosterEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.rosters) == 0 {
		return nil
	}
	return v.rosters[len(v.rosters)-1]
}

type harness struct {
	t       *testing.T
	session *Session
	dialer  *fakeDialer
	clock   *manualClock
	view    *recordingView
	journal *journal
	prefs   *MemoryPreferences
}

func newHarness(t *testing.T, saved Preferences) *harness {
	t.Helper()
	j := &journal{}
	h := &harness{
		t:       t,
		dialer:  &fakeDialer{journal: j},
		clock:   &manualClock{},
		view:    &recordingView{},
		journal: j,
		prefs:   NewMemoryPreferences(saved),
	}
	cfg := DefaultConfig()
	cfg.BaseURL = "http://chat.test"
	s, err := NewSession(cfg,
		WithDialer(h.dialer),
		WithClock(h.clock),
		WithView(h.view),
		WithPreferences(h.prefs),
	)
	require.NoError(t, err)
	h.session = s
	t.Cleanup(func() { _ = s.Close() })
	return h
}

func (h *harness) waitState(want ConnectionState) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.session.State() == want },
		2*time.Second, 5*time.Millisecond, "state never became %s", want)
}

// connectAs sets the username and waits for the first connection to open.
func (h *harness) connectAs(name string) *fakeConn {
	h.t.Helper()
	require.NoError(h.t, h.session.SetUsername(name))
	h.waitState(StateConnected)
	return h.dialer.conn(h.dialer.count() - 1)
}

// settle waits until every turn posted so far has run.
func (h *harness) settle() {
	_ = h.session.loop.call(func() {})
}
