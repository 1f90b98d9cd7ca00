package roomchat

import "strings"

const leftRoomNotice = "You left the room"

// Session is the client side of one user's presence in one room at a time.
// It owns the connection manager, the roster and the identity; every
// operation runs as a turn on the session's event loop.
type Session struct {
	cfg      Config
	loop     *loop
	mgr      *manager
	presence *presence
	view     View
	prefs    PreferenceStore
	logger   Logger

	username      string
	room          string
	savedUsername string
}

type options struct {
	view    View
	prefs   PreferenceStore
	logger  Logger
	dialer  Dialer
	clock   Clock
	metrics Metrics
}

// Option configures a Session.
type Option func(*options)

// WithView sets the collaborator that renders session output.
func WithView(v View) Option {
	return func(o *options) { o.view = v }
}

// WithPreferences sets where the username and room are remembered.
func WithPreferences(p PreferenceStore) Option {
	return func(o *options) { o.prefs = p }
}

// WithLogger overrides the logger (optional).
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithClock replaces the clock used to schedule reconnects.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMetrics installs a lifecycle observer.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewSession validates cfg, loads saved preferences and starts the event loop.
// No connection is opened until SetUsername is called.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{
		view:    NopView{},
		logger:  noopLogger{},
		clock:   realClock{},
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.view == nil {
		o.view = NopView{}
	}
	if o.logger == nil {
		o.logger = noopLogger{}
	}
	if o.prefs == nil {
		o.prefs = NewMemoryPreferences(Preferences{})
	}
	if o.dialer == nil {
		o.dialer = websocketDialer{cfg: cfg}
	}

	s := &Session{
		cfg:      cfg,
		loop:     newLoop(64),
		presence: &presence{view: o.view},
		view:     o.view,
		prefs:    o.prefs,
		logger:   o.logger,
		room:     cfg.room(""),
	}
	d := &dispatcher{view: o.view, presence: s.presence}
	s.mgr = &manager{
		cfg:     cfg,
		dialer:  o.dialer,
		clock:   o.clock,
		loop:    s.loop,
		logger:  o.logger,
		metrics: o.metrics,
		view:    o.view,
		onEvent: d.dispatch,
	}

	saved, err := o.prefs.Load()
	if err != nil {
		s.logger.Warn("load preferences", map[string]any{"error": err.Error()})
	}
	if r := strings.TrimSpace(saved.Room); r != "" {
		s.room = r
	}
	s.savedUsername = strings.TrimSpace(saved.Username)
	s.mgr.room = s.room
	return s, nil
}

// SetUsername stores the identity and connects to the current room.
func (s *Session) SetUsername(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyUsername
	}
	return s.do(func() error {
		s.username = name
		if err := s.prefs.SaveUsername(name); err != nil {
			s.logger.Warn("save username", map[string]any{"error": err.Error()})
		}
		s.mgr.connect(s.room, s.username)
		return nil
	})
}

// JoinRoom switches rooms. The old connection is torn down and the roster
// and message view are cleared before the new connection is started.
// An empty name means the default room; joining the current room does nothing.
func (s *Session) JoinRoom(name string) error {
	room := s.cfg.room(name)
	return s.do(func() error {
		if room == s.room {
			return nil
		}
		s.mgr.disconnect()
		s.presence.reset()
		s.view.OnRoomChanged(room)
		s.room = room
		if err := s.prefs.SaveRoom(room); err != nil {
			s.logger.Warn("save room", map[string]any{"error": err.Error()})
		}
		if s.username != "" {
			s.mgr.connect(s.room, s.username)
		}
		return nil
	})
}

// LeaveRoom disconnects and stops reconnect attempts until the next
// SetUsername, JoinRoom or visibility change.
func (s *Session) LeaveRoom() error {
	return s.do(func() error {
		s.mgr.disconnect()
		s.view.OnSystemMessage(leftRoomNotice)
		return nil
	})
}

// SendChat sends text to the current room. Nothing is queued: while not
// connected the call fails with ErrNotConnected and the text is dropped.
func (s *Session) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	return s.do(func() error {
		if err := s.mgr.send(ChatSend{Text: text}); err != nil {
			s.logger.Debug("send chat", map[string]any{"room": s.room, "error": err.Error()})
			return err
		}
		return nil
	})
}

// OnVisibilityChange disconnects while the client is hidden and reconnects
// when it becomes visible again, if a username is set.
func (s *Session) OnVisibilityChange(hidden bool) error {
	return s.do(func() error {
		if hidden {
			s.mgr.disconnect()
			return nil
		}
		if s.username != "" {
			s.mgr.connect(s.room, s.username)
		}
		return nil
	})
}

// Close disconnects and stops the event loop. Later calls return ErrClosed.
func (s *Session) Close() error {
	_ = s.loop.call(s.mgr.disconnect)
	s.loop.shutdown()
	return nil
}

// Username returns the identity set by SetUsername, or "".
func (s *Session) Username() string {
	var v string
	_ = s.loop.call(func() { v = s.username })
	return v
}

// SavedUsername returns the username remembered from a previous run.
// It is only a hint; the session stays disconnected until SetUsername.
func (s *Session) SavedUsername() string { return s.savedUsername }

// Room returns the current room.
func (s *Session) Room() string {
	var v string
	_ = s.loop.call(func() { v = s.room })
	return v
}

// State returns the connection state.
func (s *Session) State() ConnectionState {
	v := StateDisconnected
	_ = s.loop.call(func() { v = s.mgr.state })
	return v
}

// Roster returns a copy of the current roster.
func (s *Session) Roster() []RosterEntry {
	var v []RosterEntry
	_ = s.loop.call(func() { v = s.presence.snapshot() })
	return v
}

func (s *Session) do(fn func() error) error {
	var err error
	if cerr := s.loop.call(func() { err = fn() }); cerr != nil {
		return cerr
	}
	return err
}
