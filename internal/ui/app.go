// Package ui is the interactive terminal front end. It renders the session
// clock and dispatches key presses into it as intents.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/query"
	"pomorix/internal/tasks"
	"pomorix/internal/timer"
)

const (
	TopicSettings query.Topic = "settings"
	TopicTasks    query.Topic = "tasks"
	TopicStreak   query.Topic = "streak"
	TopicFeed     query.Topic = "feed"
	TopicOnline   query.Topic = "online"
)

// Service is the remote API as seen by the UI.
type Service interface {
	timer.Gateway
	Settings(ctx context.Context) (model.Settings, error)
	Tasks(ctx context.Context) ([]model.Task, error)
	ToggleActive(ctx context.Context, id string) (*model.Task, error)
	Streak(ctx context.Context) (model.Streak, error)
	GlobalFeed(ctx context.Context, limit int) (model.GlobalFeed, error)
	OnlineCount(ctx context.Context) (int, error)
}

// Options are passed down explicitly; nothing is read from ambient state.
type Options struct {
	// FocusMode hides the feed and statistics panels.
	FocusMode          bool
	SettingsStaleTime  time.Duration
	FeedPollInterval   time.Duration
	OnlinePollInterval time.Duration
	FeedLimit          int
	RequestTimeout     time.Duration
	NoticeTTL          time.Duration
	Logger             *slog.Logger
	ClockOptions       []timer.Option
}

func (o Options) withDefaults() Options {
	if o.SettingsStaleTime <= 0 {
		o.SettingsStaleTime = 5 * time.Minute
	}
	if o.FeedPollInterval <= 0 {
		o.FeedPollInterval = 25 * time.Second
	}
	if o.OnlinePollInterval <= 0 {
		o.OnlinePollInterval = 15 * time.Second
	}
	if o.FeedLimit <= 0 {
		o.FeedLimit = 50
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.NoticeTTL <= 0 {
		o.NoticeTTL = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type (
	settingsLoadedMsg struct {
		settings model.Settings
		err      error
	}
	tasksLoadedMsg struct {
		tasks []model.Task
		err   error
	}
	streakLoadedMsg struct {
		streak model.Streak
		err    error
	}
	feedLoadedMsg struct {
		feed model.GlobalFeed
		err  error
	}
	onlineLoadedMsg struct {
		count int
		err   error
	}
	toggledMsg struct {
		task *model.Task
		err  error
	}
	topicMsg         struct{ topic query.Topic }
	pollMsg          struct{ topic query.Topic }
	noticeExpiredMsg struct{ id int }
)

type notice struct {
	id   int
	kind timer.NoticeKind
	text string
}

// Model is the bubbletea model of the interactive timer.
type Model struct {
	svc    Service
	opts   Options
	logger *slog.Logger

	queries  *query.Client
	settings *query.Query[model.Settings]
	taskList *query.Query[[]model.Task]
	streak   *query.Query[model.Streak]
	feed     *query.Query[model.GlobalFeed]
	online   *query.Query[int]

	clock    *timer.Clock
	selector *tasks.Selector

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	cursor      int
	focusMode   bool
	notices     []notice
	noticeSeq   int
	streakValue model.Streak
	feedItems   []model.FeedItem
	onlineCount int
	title       string
	width       int
	now         func() time.Time
}

func New(svc Service, opts Options) *Model {
	opts = opts.withDefaults()
	m := &Model{
		svc:       svc,
		opts:      opts,
		logger:    opts.Logger,
		queries:   query.NewClient(),
		selector:  tasks.NewSelector(),
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		focusMode: opts.FocusMode,
		width:     80,
		now:       time.Now,
	}

	m.settings = query.New(m.queries, TopicSettings, opts.SettingsStaleTime, svc.Settings)
	m.taskList = query.New(m.queries, TopicTasks, 0, svc.Tasks)
	m.streak = query.New(m.queries, TopicStreak, 0, svc.Streak)
	m.feed = query.New(m.queries, TopicFeed, 0, func(ctx context.Context) (model.GlobalFeed, error) {
		return svc.GlobalFeed(ctx, opts.FeedLimit)
	})
	m.online = query.New(m.queries, TopicOnline, 0, svc.OnlineCount)

	clockOpts := append([]timer.Option{timer.WithLogger(opts.Logger)}, opts.ClockOptions...)
	m.clock = timer.New(svc, timer.PreferenceFunc(m.settings.Get), clockOpts...)
	return m
}

// Clock exposes the session clock, mainly for tests.
func (m *Model) Clock() *timer.Clock {
	return m.clock
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.clock.Init(),
		m.load(TopicSettings),
		m.load(TopicTasks),
		m.load(TopicStreak),
		m.load(TopicFeed),
		m.load(TopicOnline),
		m.poll(TopicFeed, m.opts.FeedPollInterval),
		m.poll(TopicOnline, m.opts.OnlinePollInterval),
		m.waitForChange(),
		m.spinner.Tick,
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.FocusMsg:
		// Another window may have changed preferences or the session.
		m.queries.Invalidate(TopicSettings, TopicTasks)
		return m, m.updateClock(timer.SyncMsg{})

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case settingsLoadedMsg:
		if msg.err != nil {
			return m, m.loadFailed("settings", msg.err)
		}
		return m, m.updateClock(timer.SettingsMsg{Settings: msg.settings})

	case tasksLoadedMsg:
		if msg.err != nil {
			return m, m.loadFailed("tasks", msg.err)
		}
		m.selector.Replace(msg.tasks)
		m.clampCursor()
		return m, m.syncActiveTask()

	case streakLoadedMsg:
		if msg.err == nil {
			m.streakValue = msg.streak
		}
		return m, nil

	case feedLoadedMsg:
		if msg.err == nil {
			m.feedItems = msg.feed.Items
			m.onlineCount = msg.feed.OnlineCount
		}
		return m, nil

	case onlineLoadedMsg:
		if msg.err == nil {
			m.onlineCount = msg.count
		}
		return m, nil

	case toggledMsg:
		if msg.err != nil {
			return m, m.pushNotice(timer.NoticeError, apperrors.UserMessage(msg.err))
		}
		m.selector.Upsert(*msg.task)
		m.queries.Invalidate(TopicTasks)
		return m, m.syncActiveTask()

	case topicMsg:
		return m, tea.Batch(m.load(msg.topic), m.waitForChange())

	case pollMsg:
		m.queries.Invalidate(msg.topic)
		interval := m.opts.FeedPollInterval
		if msg.topic == TopicOnline {
			interval = m.opts.OnlinePollInterval
		}
		return m, m.poll(msg.topic, interval)

	case noticeExpiredMsg:
		for i, n := range m.notices {
			if n.id == msg.id {
				m.notices = append(m.notices[:i], m.notices[i+1:]...)
				break
			}
		}
		return m, nil

	case timer.Notice:
		return m, m.pushNotice(msg.Kind, msg.Message)

	case timer.SessionCompletedMsg:
		if msg.Session.SessionType == model.SessionFocus {
			m.selector.RecordCompletion(msg.Session.TaskID)
		}
		m.queries.Invalidate(TopicTasks, TopicStreak, TopicFeed)
		return m, m.pushNotice(timer.NoticeInfo, timer.Title(msg.Session.SessionType, 0, false))
	}

	return m, m.updateClock(msg)
}

// updateClock forwards msg to the clock and keeps the window title current.
func (m *Model) updateClock(msg tea.Msg) tea.Cmd {
	cmd := m.clock.Update(msg)
	if title := m.clock.Title(); title != m.title {
		m.title = title
		return tea.Batch(cmd, tea.SetWindowTitle(title))
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.FocusMode):
		m.focusMode = !m.focusMode
	case key.Matches(msg, m.keys.Toggle):
		switch m.clock.State() {
		case timer.StateIdle:
			return m.updateClock(timer.StartMsg{Mode: m.clock.Mode()})
		case timer.StateRunning:
			return m.updateClock(timer.PauseMsg{})
		case timer.StatePaused, timer.StateSuspended:
			return m.updateClock(timer.ResumeMsg{})
		}
	case key.Matches(msg, m.keys.Focus):
		return m.updateClock(timer.ChangeModeMsg{Mode: model.SessionFocus})
	case key.Matches(msg, m.keys.ShortBreak):
		return m.updateClock(timer.ChangeModeMsg{Mode: model.SessionShortBreak})
	case key.Matches(msg, m.keys.LongBreak):
		return m.updateClock(timer.ChangeModeMsg{Mode: model.SessionLongBreak})
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.selector.Tasks())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Activate):
		return m.toggleActive()
	case key.Matches(msg, m.keys.Refresh):
		m.queries.Invalidate(TopicSettings, TopicTasks, TopicStreak, TopicFeed, TopicOnline)
		return m.updateClock(timer.SyncMsg{})
	}
	return nil
}

func (m *Model) toggleActive() tea.Cmd {
	list := m.selector.Tasks()
	if m.cursor >= len(list) {
		return nil
	}
	id, svc, timeout := list[m.cursor].ID, m.svc, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		task, err := svc.ToggleActive(ctx, id)
		return toggledMsg{task: task, err: err}
	}
}

func (m *Model) syncActiveTask() tea.Cmd {
	return m.updateClock(timer.TaskMsg{Active: m.selector.Active()})
}

// load reads a topic through its query; fresh values come from the cache.
func (m *Model) load(topic query.Topic) tea.Cmd {
	timeout := m.opts.RequestTimeout
	run := func(fn func(ctx context.Context) tea.Msg) tea.Cmd {
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return fn(ctx)
		}
	}

	switch topic {
	case TopicSettings:
		return run(func(ctx context.Context) tea.Msg {
			s, err := m.settings.Get(ctx)
			return settingsLoadedMsg{settings: s, err: err}
		})
	case TopicTasks:
		return run(func(ctx context.Context) tea.Msg {
			list, err := m.taskList.Get(ctx)
			return tasksLoadedMsg{tasks: list, err: err}
		})
	case TopicStreak:
		return run(func(ctx context.Context) tea.Msg {
			s, err := m.streak.Get(ctx)
			return streakLoadedMsg{streak: s, err: err}
		})
	case TopicFeed:
		return run(func(ctx context.Context) tea.Msg {
			feed, err := m.feed.Get(ctx)
			return feedLoadedMsg{feed: feed, err: err}
		})
	case TopicOnline:
		return run(func(ctx context.Context) tea.Msg {
			count, err := m.online.Get(ctx)
			return onlineLoadedMsg{count: count, err: err}
		})
	}
	return nil
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.queries.Changes()
	return func() tea.Msg {
		return topicMsg{topic: <-changes}
	}
}

func (m *Model) poll(topic query.Topic, every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg { return pollMsg{topic: topic} })
}

func (m *Model) pushNotice(kind timer.NoticeKind, text string) tea.Cmd {
	if text == "" {
		return nil
	}
	m.noticeSeq++
	id := m.noticeSeq
	m.notices = append(m.notices, notice{id: id, kind: kind, text: text})
	return tea.Tick(m.opts.NoticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{id: id} })
}

func (m *Model) loadFailed(what string, err error) tea.Cmd {
	m.logger.Warn("load failed", "what", what, "error", err)
	return m.pushNotice(timer.NoticeError, fmt.Sprintf("Failed to load %s: %s", what, apperrors.UserMessage(err)))
}

func (m *Model) clampCursor() {
	if n := len(m.selector.Tasks()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pomorix"))
	b.WriteString("\n\n")
	b.WriteString(m.viewTabs())
	b.WriteString("\n")
	b.WriteString(m.viewClock())
	b.WriteString("\n")
	b.WriteString(m.viewTasks())

	if !m.focusMode {
		b.WriteString(m.viewStats())
		b.WriteString(m.viewFeed())
	}

	for _, n := range m.notices {
		style := infoStyle
		if n.kind == timer.NoticeError {
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(n.text))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return panelStyle.Render(b.String())
}

func (m *Model) viewTabs() string {
	modes := []model.SessionType{model.SessionFocus, model.SessionShortBreak, model.SessionLongBreak}
	tabs := make([]string, 0, len(modes))
	for _, mode := range modes {
		if mode == m.clock.Mode() {
			tabs = append(tabs, activeTabStyle.Foreground(modeColor(mode)).Render(mode.Label()))
		} else {
			tabs = append(tabs, tabStyle.Render(mode.Label()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) viewClock() string {
	face := clockStyle.BorderForeground(modeColor(m.clock.Mode())).Render(m.clock.Display())

	status := m.clock.State().String()
	if m.clock.Busy() || m.clock.State() == timer.StateCompleting {
		status = m.spinner.View() + " " + status
	}
	if active := m.clock.ActiveTask(); active != nil {
		status += dimStyle.Render("  ·  " + active.Title)
	} else {
		status += dimStyle.Render("  ·  no active task")
	}
	return lipgloss.JoinVertical(lipgloss.Left, face, status)
}

func (m *Model) viewTasks() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Tasks"))
	b.WriteString("\n")

	list := m.selector.Tasks()
	if len(list) == 0 {
		b.WriteString(dimStyle.Render("  No tasks yet. Add one with `pomorix add-task`."))
		b.WriteString("\n")
		return b.String()
	}
	for i, task := range list {
		marker := "  "
		if task.IsActive {
			marker = "▶ "
		}
		line := fmt.Sprintf("%s%s  %s", marker, task.Title, dimStyle.Render(tasks.Progress(task)))
		if task.IsCompleted {
			line = dimStyle.Render(marker + task.Title + " ✓")
		}
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) viewStats() string {
	goal := m.clock.Settings().DailyGoalPomodoros
	return sectionStyle.Render("Today") + "\n" + fmt.Sprintf(
		"  %d/%d pomodoros  ·  streak %d days (best %d)\n",
		m.streakValue.TodayPomodoros, goal,
		m.streakValue.CurrentStreak, m.streakValue.LongestStreak,
	)
}

func (m *Model) viewFeed() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Live"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s online", FormatCount(m.onlineCount))))
	b.WriteString("\n")

	now := m.now()
	for i, item := range m.feedItems {
		if i == 5 {
			break
		}
		status := StatusOf(item.State)
		b.WriteString(fmt.Sprintf("  %s %s  %s  %s\n",
			statusStyles[status].Render(string(status)),
			DisplayName(item.UserEmail),
			item.TaskTitle,
			dimStyle.Render(RelativeTime(item.StartedAt, now)),
		))
	}
	return b.String()
}

func modeColor(mode model.SessionType) lipgloss.Color {
	if mode.IsBreak() {
		return breakColor
	}
	return focusColor
}
