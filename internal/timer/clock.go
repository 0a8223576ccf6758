// Package timer implements the session clock: the countdown, its mode, and
// the transitions between idle, running, paused and completing sessions.
//
// The clock is driven by bubbletea messages. All of its fields are mutated
// inside Update on the program's event loop; network calls run as commands
// and report back as messages, so there is no locking.
package timer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/retry"
)

// ErrNoActiveTask is reported when a session is requested without an active
// task. No request is sent in that case.
var ErrNoActiveTask = errors.New("select an active task before starting a session")

// ErrBusy is reported when an intent arrives while a session is running or a
// call is still outstanding.
var ErrBusy = errors.New("a session is already in progress")

type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	// StateCompleting holds from the zero-crossing until the completion call
	// settles. Ticks and intents are ignored meanwhile.
	StateCompleting
	// StateSuspended means the service still has an open session but no task
	// is active, so the countdown is frozen. Activating a task re-syncs.
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleting:
		return "completing"
	case StateSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Gateway is the remote session service.
type Gateway interface {
	StartSession(ctx context.Context, sessionType model.SessionType) (*model.Session, error)
	CurrentSession(ctx context.Context) (*model.Session, error)
	PauseSession(ctx context.Context) error
	ResumeSession(ctx context.Context) error
	CompleteSession(ctx context.Context) error
}

// PreferenceSource supplies the user's durations and auto-start flags.
type PreferenceSource interface {
	Preferences(ctx context.Context) (model.Settings, error)
}

// PreferenceFunc adapts a function to PreferenceSource.
type PreferenceFunc func(ctx context.Context) (model.Settings, error)

func (f PreferenceFunc) Preferences(ctx context.Context) (model.Settings, error) {
	return f(ctx)
}

// Intents dispatched by the presentation layer.
type (
	StartMsg      struct{ Mode model.SessionType }
	ChangeModeMsg struct{ Mode model.SessionType }
	PauseMsg      struct{}
	ResumeMsg     struct{}
	// SyncMsg replaces the local countdown with the service's view of the
	// current session.
	SyncMsg struct{}
	// TaskMsg reports the currently active task, nil when there is none.
	TaskMsg struct{ Active *model.Task }
	// SettingsMsg reports a fresh preference snapshot.
	SettingsMsg struct{ Settings model.Settings }
)

type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
)

// Notice is a transient, user-visible message emitted by the clock.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

// SessionCompletedMsg is emitted once per confirmed completion.
type SessionCompletedMsg struct {
	Session model.Session
}

type (
	tickMsg    struct{ tag int }
	startedMsg struct {
		session *model.Session
		auto    bool
		err     error
	}
	pausedMsg  struct{ err error }
	resumedMsg struct {
		session *model.Session
		err     error
	}
	syncedMsg struct {
		tag     int
		session *model.Session
		err     error
	}
	completedMsg struct {
		session  model.Session
		settings model.Settings
		err      error
	}
)

// Policies holds the retry policy of each call that is retried.
type Policies struct {
	Pause    retry.Policy
	Resume   retry.Policy
	Complete retry.Policy
}

func DefaultPolicies() Policies {
	return Policies{
		Pause:    retry.Default(),
		Resume:   retry.Default(),
		Complete: retry.Completion(),
	}
}

// Clock is the session state machine.
type Clock struct {
	gateway     Gateway
	prefs       PreferenceSource
	logger      *slog.Logger
	policies    Policies
	callTimeout time.Duration
	tick        func(tag int) tea.Cmd
	ctx         context.Context

	state       State
	mode        model.SessionType
	secondsLeft int
	session     *model.Session
	activeTask  *model.Task
	settings    model.Settings
	busy        bool

	// tag identifies the current tick loop. Every transition bumps it and
	// ticks carrying an older tag are dropped.
	tag int
}

// Option configures a Clock.
type Option func(*Clock)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Clock) { c.logger = logger }
}

func WithPolicies(p Policies) Option {
	return func(c *Clock) { c.policies = p }
}

// WithCallTimeout bounds each individual request attempt.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Clock) { c.callTimeout = d }
}

// WithTicker replaces the one-second tea.Tick, for tests.
func WithTicker(tick func(tag int) tea.Cmd) Option {
	return func(c *Clock) { c.tick = tick }
}

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) Option {
	return func(c *Clock) { c.ctx = ctx }
}

// WithSettings seeds the preference snapshot used until the first fetch.
func WithSettings(s model.Settings) Option {
	return func(c *Clock) { c.settings = s }
}

func New(gateway Gateway, prefs PreferenceSource, opts ...Option) *Clock {
	c := &Clock{
		gateway:     gateway,
		prefs:       prefs,
		logger:      slog.Default(),
		policies:    DefaultPolicies(),
		callTimeout: 15 * time.Second,
		ctx:         context.Background(),
		mode:        model.SessionFocus,
		settings:    model.DefaultSettings(),
	}
	c.tick = func(tag int) tea.Cmd {
		return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{tag: tag} })
	}
	for _, opt := range opts {
		opt(c)
	}
	c.secondsLeft = c.settings.SecondsFor(c.mode)
	return c
}

// Init reconciles with the service on startup.
func (c *Clock) Init() tea.Cmd {
	return c.Update(SyncMsg{})
}

func (c *Clock) State() State { return c.state }
func (c *Clock) Mode() model.SessionType { return c.mode }
func (c *Clock) SecondsLeft() int { return c.secondsLeft }
func (c *Clock) Busy() bool { return c.busy }
func (c *Clock) Settings() model.Settings { return c.settings }
func (c *Clock) ActiveTask() *model.Task { return c.activeTask }
func (c *Clock) Title() string { return Title(c.mode, c.secondsLeft, c.IsActive()) }
func (c *Clock) Display() string { return FormatClock(c.secondsLeft) }
func (c *Clock) Session() *model.Session { return c.session }

// IsActive reports whether the countdown is ticking against a live session.
func (c *Clock) IsActive() bool {
	return c.state == StateRunning && c.session != nil && c.secondsLeft > 0
}

// Update applies msg and returns the follow-up command, if any.
func (c *Clock) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case StartMsg:
		return c.start(msg.Mode)
	case ChangeModeMsg:
		return c.start(msg.Mode)
	case PauseMsg:
		return c.pause()
	case ResumeMsg:
		return c.resume()
	case SyncMsg:
		return c.sync()
	case TaskMsg:
		return c.setActiveTask(msg.Active)
	case SettingsMsg:
		c.settings = msg.Settings
		if c.state == StateIdle && c.session == nil && !c.busy {
			c.secondsLeft = c.settings.SecondsFor(c.mode)
		}
		return nil

	case tickMsg:
		return c.onTick(msg)
	case startedMsg:
		return c.onStarted(msg)
	case pausedMsg:
		return c.onPaused(msg)
	case resumedMsg:
		return c.onResumed(msg)
	case syncedMsg:
		return c.onSynced(msg)
	case completedMsg:
		return c.onCompleted(msg)
	}
	return nil
}

// start handles both an explicit start and a mode tab selection: picking a
// tab while idle starts a session of that type.
func (c *Clock) start(mode model.SessionType) tea.Cmd {
	if !mode.Valid() {
		return nil
	}
	if c.busy || c.state != StateIdle {
		return notify(NoticeInfo, ErrBusy.Error(), ErrBusy)
	}
	if c.activeTask == nil {
		return notify(NoticeError, ErrNoActiveTask.Error(), ErrNoActiveTask)
	}

	c.tag++
	c.mode = mode
	c.secondsLeft = c.settings.SecondsFor(mode)
	c.busy = true
	return c.startCmd(mode, false)
}

func (c *Clock) startCmd(mode model.SessionType, auto bool) tea.Cmd {
	gateway, ctx, timeout := c.gateway, c.ctx, c.callTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		session, err := gateway.StartSession(ctx, mode)
		return startedMsg{session: session, auto: auto, err: err}
	}
}

func (c *Clock) onStarted(msg startedMsg) tea.Cmd {
	c.busy = false
	if msg.err != nil || msg.session == nil || msg.session.ID == "" {
		err := msg.err
		if err == nil {
			err = errors.New("empty session")
		}
		c.logger.Warn("start session failed", "mode", c.mode, "auto", msg.auto, "error", err)
		c.toIdle()
		if msg.auto {
			c.mode = model.SessionFocus
			c.secondsLeft = c.settings.SecondsFor(c.mode)
			return notify(NoticeError, "Could not start the next session: "+apperrors.UserMessage(err), err)
		}
		return notify(NoticeError, apperrors.UserMessage(err), err)
	}

	c.logger.Info("session started", "session_id", msg.session.ID, "type", msg.session.SessionType, "auto", msg.auto)
	return c.reconcile(msg.session)
}

func (c *Clock) onTick(msg tickMsg) tea.Cmd {
	if msg.tag != c.tag || c.state != StateRunning {
		return nil
	}
	c.secondsLeft--
	if c.secondsLeft > 0 {
		return c.tick(c.tag)
	}
	c.secondsLeft = 0
	return c.beginCompletion()
}

// beginCompletion enters StateCompleting and issues the single completion
// call for this zero-crossing.
func (c *Clock) beginCompletion() tea.Cmd {
	c.tag++
	c.state = StateCompleting

	var finished model.Session
	if c.session != nil {
		finished = *c.session
	}
	gateway, prefs, ctx, timeout := c.gateway, c.prefs, c.ctx, c.callTimeout
	policy, fallback, logger := c.policies.Complete, c.settings, c.logger
	policy.OnRetry = retryLogger(logger, "complete")

	return func() tea.Msg {
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return gateway.CompleteSession(ctx)
		})
		if err != nil {
			return completedMsg{session: finished, settings: fallback, err: err}
		}

		settings := fallback
		if prefs != nil {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			fresh, prefErr := prefs.Preferences(ctx)
			if prefErr != nil {
				logger.Warn("load preferences after completion", "error", prefErr)
			} else {
				settings = fresh
			}
		}
		return completedMsg{session: finished, settings: settings}
	}
}

func (c *Clock) onCompleted(msg completedMsg) tea.Cmd {
	if c.state != StateCompleting {
		return nil
	}
	c.settings = msg.settings

	if msg.err != nil {
		c.logger.Error("complete session failed", "session_id", msg.session.ID, "error", msg.err)
		c.toIdle()
		c.secondsLeft = c.settings.SecondsFor(c.mode)
		return notify(NoticeError, "Could not record the session: "+apperrors.UserMessage(msg.err), msg.err)
	}

	completed := msg.session.SessionType
	if !completed.Valid() {
		completed = c.mode
	}
	c.logger.Info("session completed", "session_id", msg.session.ID, "type", completed)
	c.toIdle()

	done := func() tea.Msg { return SessionCompletedMsg{Session: msg.session} }

	next, auto := NextSession(completed, c.settings)
	c.mode = next
	c.secondsLeft = c.settings.SecondsFor(next)
	if !auto {
		return done
	}
	if c.activeTask == nil {
		return tea.Batch(done, notify(NoticeInfo, ErrNoActiveTask.Error(), ErrNoActiveTask))
	}
	c.busy = true
	return tea.Batch(done, c.startCmd(next, true))
}

func (c *Clock) pause() tea.Cmd {
	if c.busy || c.state != StateRunning {
		return nil
	}
	c.tag++
	c.state = StatePaused
	c.busy = true

	gateway, ctx, timeout := c.gateway, c.ctx, c.callTimeout
	policy := c.policies.Pause
	policy.OnRetry = retryLogger(c.logger, "pause")
	return func() tea.Msg {
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return gateway.PauseSession(ctx)
		})
		return pausedMsg{err: err}
	}
}

func (c *Clock) onPaused(msg pausedMsg) tea.Cmd {
	c.busy = false
	if c.state != StatePaused {
		return nil
	}
	if msg.err != nil {
		// The service never confirmed the pause, so the session is still
		// running there.
		c.logger.Warn("pause session failed", "error", msg.err)
		c.tag++
		c.state = StateRunning
		return tea.Batch(
			notify(NoticeError, "Could not pause: "+apperrors.UserMessage(msg.err), msg.err),
			c.tick(c.tag),
		)
	}
	if c.session != nil {
		now := time.Now()
		c.session.IsPaused = true
		c.session.PausedAt = &now
		c.session.RemainingSeconds = c.secondsLeft
	}
	return nil
}

func (c *Clock) resume() tea.Cmd {
	if c.busy || (c.state != StatePaused && c.state != StateSuspended) {
		return nil
	}
	if c.activeTask == nil {
		return notify(NoticeError, ErrNoActiveTask.Error(), ErrNoActiveTask)
	}
	if c.state == StateSuspended {
		return nil
	}
	c.busy = true

	gateway, ctx, timeout := c.gateway, c.ctx, c.callTimeout
	policy := c.policies.Resume
	policy.OnRetry = retryLogger(c.logger, "resume")
	return func() tea.Msg {
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return gateway.ResumeSession(ctx)
		})
		if err != nil {
			return resumedMsg{err: err}
		}
		// Time may have passed while paused; only the service knows how
		// much is left.
		session, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*model.Session, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return gateway.CurrentSession(ctx)
		})
		return resumedMsg{session: session, err: err}
	}
}

func (c *Clock) onResumed(msg resumedMsg) tea.Cmd {
	c.busy = false
	if c.state != StatePaused {
		return nil
	}
	if msg.err != nil {
		c.logger.Warn("resume session failed", "error", msg.err)
		return notify(NoticeError, "Could not resume: "+apperrors.UserMessage(msg.err), msg.err)
	}
	if msg.session == nil {
		c.toIdle()
		c.secondsLeft = c.settings.SecondsFor(c.mode)
		return notify(NoticeInfo, "The session has already ended.", nil)
	}
	// The service just resumed it; a lagging paused flag must not freeze
	// the countdown.
	msg.session.IsPaused = false
	return c.reconcile(msg.session)
}

func (c *Clock) sync() tea.Cmd {
	if c.busy || c.state == StateCompleting {
		return nil
	}
	gateway, ctx, timeout, tag := c.gateway, c.ctx, c.callTimeout, c.tag
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		session, err := gateway.CurrentSession(ctx)
		return syncedMsg{tag: tag, session: session, err: err}
	}
}

func (c *Clock) onSynced(msg syncedMsg) tea.Cmd {
	// A transition since the fetch was issued makes the result stale.
	if msg.tag != c.tag || c.busy || c.state == StateCompleting {
		return nil
	}
	if msg.err != nil {
		c.logger.Warn("sync session failed", "error", msg.err)
		return notify(NoticeError, apperrors.UserMessage(msg.err), msg.err)
	}
	return c.reconcile(msg.session)
}

// reconcile replaces local state wholesale with a session fetched from the
// service. A nil session means there is none and is not an error.
func (c *Clock) reconcile(s *model.Session) tea.Cmd {
	c.tag++
	if s == nil || s.State.Terminal() {
		c.toIdle()
		c.secondsLeft = c.settings.SecondsFor(c.mode)
		return nil
	}

	c.session = s
	if s.SessionType.Valid() {
		c.mode = s.SessionType
	}
	c.secondsLeft = s.RemainingSeconds
	if s.RemainingSeconds <= 0 && s.ElapsedSeconds == 0 {
		c.secondsLeft = s.DurationSeconds
	}

	switch {
	case s.IsPaused:
		c.state = StatePaused
		return nil
	case c.secondsLeft <= 0:
		c.secondsLeft = 0
		return c.beginCompletion()
	case c.activeTask == nil:
		c.state = StateSuspended
		return nil
	default:
		c.state = StateRunning
		return c.tick(c.tag)
	}
}

// setActiveTask records the active task. Losing it while the countdown runs
// suspends the countdown locally; the service is not told. A task showing up
// while suspended picks the open session back up from the service.
func (c *Clock) setActiveTask(task *model.Task) tea.Cmd {
	c.activeTask = task
	switch {
	case task == nil && c.state == StateRunning:
		c.logger.Info("active task removed, suspending countdown")
		c.tag++
		c.state = StateSuspended
	case task != nil && c.state == StateSuspended:
		return c.sync()
	}
	return nil
}

// toIdle drops the session and stops any tick loop.
func (c *Clock) toIdle() {
	c.tag++
	c.state = StateIdle
	c.session = nil
}

func notify(kind NoticeKind, message string, err error) tea.Cmd {
	return func() tea.Msg {
		return Notice{Kind: kind, Message: message, Err: err}
	}
}

func retryLogger(logger *slog.Logger, call string) func(int, error) {
	return func(attempt int, err error) {
		logger.Warn("retrying session call", "call", call, "attempt", attempt, "error", err)
	}
}
