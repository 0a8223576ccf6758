package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"pomorix/internal/api"
	"pomorix/internal/config"
	apperrors "pomorix/internal/errors"
	"pomorix/internal/model"
	"pomorix/internal/tasks"
	"pomorix/internal/timer"
	"pomorix/internal/ui"
)

const usage = `Usage: pomorix [command] [flags]

Commands:
  run                  interactive timer (default)
  login                sign in and store the access token
  register             create an account and sign in
  logout               forget the stored access token
  status               show the current session
  tasks                list tasks
  add-task TITLE       create a task
  activate ID          toggle the active task
  settings [k=v ...]   show or update preferences
  profile              show totals, streak and focus analytics
  report-bug TEXT      send a bug report
`

func main() {
	cfg := config.LoadClient(config.ClientPath())

	command, args := "run", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	logger, closeLog, err := newLogger(cfg, command == "run")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pomorix: open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	client := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithTokenStore(api.NewFileTokenStore(cfg.CredentialsPath)),
		api.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dispatch(ctx, command, args, cfg, client, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "pomorix: %s\n", apperrors.UserMessage(err))
		logger.Error("command failed", "command", command, "error", err)
		stop()
		closeLog()
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, command string, args []string, cfg config.Client, client *api.Client, logger *slog.Logger) error {
	switch command {
	case "run":
		return runTUI(args, cfg, client, logger)
	case "login", "register":
		return authenticate(ctx, command, args, client)
	case "logout":
		if err := client.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	case "status":
		return status(ctx, client)
	case "tasks":
		return listTasks(ctx, client)
	case "add-task":
		return addTask(ctx, args, client)
	case "activate":
		return activate(ctx, args, client)
	case "settings":
		return settings(ctx, args, client)
	case "profile":
		return profile(ctx, args, client)
	case "report-bug":
		return reportBug(ctx, args, client)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runTUI(args []string, cfg config.Client, client *api.Client, logger *slog.Logger) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	focus := fs.Bool("focus", cfg.FocusMode, "hide the live feed and statistics")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app := ui.New(client, ui.Options{
		FocusMode:          *focus,
		SettingsStaleTime:  cfg.SettingsStaleTime,
		FeedPollInterval:   cfg.FeedPollInterval,
		OnlinePollInterval: cfg.OnlinePollInterval,
		FeedLimit:          cfg.FeedLimit,
		RequestTimeout:     cfg.RequestTimeout,
		Logger:             logger,
		ClockOptions:       []timer.Option{timer.WithCallTimeout(cfg.RequestTimeout)},
	})
	_, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus()).Run()
	return err
}

func authenticate(ctx context.Context, command string, args []string, client *api.Client) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("POMORIX_PASSWORD"), "account password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}
	if *password == "" {
		value, err := prompt(os.Stdin, "Password: ")
		if err != nil {
			return err
		}
		*password = value
	}

	creds := model.Credentials{Email: *email, Password: *password}
	var (
		result *model.AuthResult
		err    error
	)
	if command == "register" {
		result, err = client.Register(ctx, creds)
	} else {
		result, err = client.Login(ctx, creds)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", result.User.Email)
	return nil
}

func prompt(r io.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func status(ctx context.Context, client *api.Client) error {
	session, err := client.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Println("No active session.")
		return nil
	}

	state := "running"
	if session.IsPaused {
		state = "paused"
	}
	fmt.Printf("%s  %s (%s)\n", timer.FormatClock(session.RemainingSeconds), session.SessionType.Label(), state)
	if session.TaskTitle != "" {
		fmt.Printf("Task: %s\n", session.TaskTitle)
	}
	return nil
}

func listTasks(ctx context.Context, client *api.Client) error {
	list, err := client.Tasks(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No tasks yet.")
		return nil
	}

	t := newTable().Headers("ID", "TITLE", "POMODOROS", "STATUS")
	for _, task := range list {
		state := ""
		switch {
		case task.IsCompleted:
			state = "done"
		case task.IsActive:
			state = "active"
		}
		t.Row(task.ID, task.Title, tasks.Progress(task), state)
	}
	fmt.Println(t.Render())
	return nil
}

func addTask(ctx context.Context, args []string, client *api.Client) error {
	fs := flag.NewFlagSet("add-task", flag.ContinueOnError)
	estimate := fs.Int("estimate", 1, "estimated pomodoros")
	if err := fs.Parse(args); err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		return errors.New("a task title is required")
	}

	task, err := client.CreateTask(ctx, model.CreateTaskRequest{Title: title, EstimatedPomodoros: *estimate})
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (%s).\n", task.Title, task.ID)
	return nil
}

func activate(ctx context.Context, args []string, client *api.Client) error {
	if len(args) != 1 {
		return errors.New("usage: pomorix activate ID")
	}
	task, err := client.ToggleActive(ctx, args[0])
	if err != nil {
		return err
	}
	if task.IsActive {
		fmt.Printf("%s is now the active task.\n", task.Title)
	} else {
		fmt.Printf("%s is no longer active.\n", task.Title)
	}
	return nil
}

func settings(ctx context.Context, args []string, client *api.Client) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	reset := fs.Bool("reset", false, "restore the defaults")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		current model.Settings
		err     error
	)
	switch {
	case *reset:
		current, err = client.ResetSettings(ctx)
	case fs.NArg() > 0:
		var update model.SettingsUpdate
		if update, err = parseSettingsUpdate(fs.Args()); err != nil {
			return err
		}
		current, err = client.UpdateSettings(ctx, update)
	default:
		current, err = client.Settings(ctx)
	}
	if err != nil {
		return err
	}

	t := newTable().Rows(
		[]string{"pomodoro_duration", strconv.Itoa(current.PomodoroDuration)},
		[]string{"short_break", strconv.Itoa(current.ShortBreak)},
		[]string{"long_break", strconv.Itoa(current.LongBreak)},
		[]string{"auto_start_breaks", strconv.FormatBool(current.AutoStartBreaks)},
		[]string{"auto_start_pomodoros", strconv.FormatBool(current.AutoStartPomodoros)},
		[]string{"daily_goal_pomodoros", strconv.Itoa(current.DailyGoalPomodoros)},
		[]string{"alarm_sound", string(current.AlarmSound)},
		[]string{"ticking_sound", string(current.TickingSound)},
		[]string{"volume", strconv.Itoa(current.Volume)},
	)
	fmt.Println(t.Render())
	return nil
}

func profile(ctx context.Context, args []string, client *api.Client) error {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	rawRange := fs.String("range", "7d", "analytics range: 7d, 30d or all")
	name := fs.String("name", "", "set the display name before showing the profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rng, err := parseRange(*rawRange)
	if err != nil {
		return err
	}

	if *name != "" {
		if _, err := client.UpdateProfile(ctx, model.UpdateProfileRequest{DisplayName: name}); err != nil {
			return err
		}
	}
	p, err := client.Profile(ctx, rng)
	if err != nil {
		return err
	}
	return printProfile(os.Stdout, p, time.Now())
}

// parseRange accepts the short forms 7d, 30d and all as well as the range
// names the service uses.
func parseRange(raw string) (model.ProfileRange, error) {
	switch strings.ToLower(raw) {
	case "7d", "week":
		return model.RangeLast7Days, nil
	case "30d", "month":
		return model.RangeLast30Days, nil
	case "all":
		return model.RangeAllTime, nil
	}
	if rng := model.ProfileRange(strings.ToUpper(raw)); rng.Valid() {
		return rng, nil
	}
	return "", fmt.Errorf("unknown range %q, expected 7d, 30d or all", raw)
}

func printProfile(out io.Writer, p *model.Profile, now time.Time) error {
	name := p.User.DisplayName
	if name == "" {
		name = p.User.Email
	}
	fmt.Fprintf(out, "%s, member since %s\n\n", name, humanize.RelTime(p.MemberSince, now, "ago", "from now"))

	totals := newTable().Rows(
		[]string{"Total pomodoros", humanize.Comma(int64(p.TotalPomodoros))},
		[]string{"Total focus", formatMinutes(p.TotalFocusMinutes)},
		[]string{"Current streak", fmt.Sprintf("%d days (best %d)", p.Streak.CurrentStreak, p.Streak.LongestStreak)},
		[]string{"Badges", fmt.Sprintf("%d unlocked", len(p.Badges))},
	)
	if _, err := fmt.Fprintln(out, totals.Render()); err != nil {
		return err
	}

	a := p.Analytics
	fmt.Fprintf(out, "\n%s: %d pomodoros, %s, %.1f min/day\n",
		rangeLabel(a.Range), a.Pomodoros, formatMinutes(a.FocusMinutes), a.DailyAverageMinutes)
	days := newTable()
	for _, day := range a.Days {
		if day.Pomodoros == 0 && a.Range == model.RangeAllTime {
			continue
		}
		days.Row(day.Date, strconv.Itoa(day.Pomodoros), strings.Repeat("#", day.Pomodoros))
	}
	_, err := fmt.Fprintln(out, days.Render())
	return err
}

// newTable renders borderless, left-aligned columns.
func newTable() *table.Table {
	cell := lipgloss.NewStyle().PaddingRight(2)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style { return cell })
}

func rangeLabel(rng model.ProfileRange) string {
	switch rng {
	case model.RangeLast30Days:
		return "Last 30 days"
	case model.RangeAllTime:
		return "All time"
	default:
		return "Last 7 days"
	}
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func reportBug(ctx context.Context, args []string, client *api.Client) error {
	fs := flag.NewFlagSet("report-bug", flag.ContinueOnError)
	title := fs.String("title", "", "short summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	description := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *title == "" || description == "" {
		return errors.New("usage: pomorix report-bug -title TITLE DESCRIPTION")
	}

	report, err := client.ReportBug(ctx, model.CreateBugReportRequest{Title: *title, Description: description})
	if err != nil {
		return err
	}
	fmt.Printf("Thanks, report %s received.\n", report.ID)
	return nil
}

// parseSettingsUpdate reads key=value pairs such as short_break=10.
func parseSettingsUpdate(pairs []string) (model.SettingsUpdate, error) {
	var update model.SettingsUpdate
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return update, fmt.Errorf("expected key=value, got %q", pair)
		}

		var err error
		switch key {
		case "pomodoro_duration":
			update.PomodoroDuration, err = intPtr(value)
		case "short_break":
			update.ShortBreak, err = intPtr(value)
		case "long_break":
			update.LongBreak, err = intPtr(value)
		case "daily_goal_pomodoros":
			update.DailyGoalPomodoros, err = intPtr(value)
		case "volume":
			update.Volume, err = intPtr(value)
		case "auto_start_breaks":
			update.AutoStartBreaks, err = boolPtr(value)
		case "auto_start_pomodoros":
			update.AutoStartPomodoros, err = boolPtr(value)
		case "alarm_sound":
			sound := model.AlarmSound(strings.ToUpper(value))
			update.AlarmSound = &sound
		case "ticking_sound":
			sound := model.TickingSound(strings.ToUpper(value))
			update.TickingSound = &sound
		default:
			return update, fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			return update, fmt.Errorf("%s: %w", key, err)
		}
	}
	return update, nil
}

func intPtr(value string) (*int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func boolPtr(value string) (*bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// newLogger writes to a file for the interactive UI, which owns the
// terminal, and to stderr for one-shot commands.
func newLogger(cfg config.Client, toFile bool) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if !toFile || cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, opts)), func() { _ = f.Close() }, nil
}
