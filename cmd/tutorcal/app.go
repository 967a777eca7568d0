package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"tutorcal/internal/calendar"
	"tutorcal/internal/config"
	"tutorcal/internal/events"
	"tutorcal/internal/export"
	"tutorcal/internal/grid"
	"tutorcal/internal/metrics"
	"tutorcal/internal/model"
	"tutorcal/internal/schedule"
	"tutorcal/internal/service"
	"tutorcal/internal/tutorapi"
)

const dateLayout = "2006-01-02"

var errUsage = errors.New("invalid arguments")

type app struct {
	cfg     *config.Config
	logger  *zerolog.Logger
	out     io.Writer
	refresh time.Duration

	client *tutorapi.Client
	rdb    *redis.Client
	bus    *events.EventBus
}

func newApp(cfg *config.Config, logger *zerolog.Logger, out io.Writer) *app {
	var tokens oauth2.TokenSource
	if cfg.API.Token != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.API.Token, TokenType: "Bearer"})
	}
	client := tutorapi.NewClient(cfg.API.BaseURL, tokens, cfg.APITimeout())
	client.UseLogger(logger)
	client.UseRateLimit(cfg.RateLimit())

	var rdb *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}

	bus := events.NewEventBus()
	bus.Subscribe(events.Wildcard, func(e events.Event) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Level, e.Message)
	})

	return &app{
		cfg:     cfg,
		logger:  logger,
		out:     out,
		refresh: cfg.RefreshInterval(),
		client:  client,
		rdb:     rdb,
		bus:     bus,
	}
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	var err error
	switch cmd {
	case "week":
		err = a.showCalendar(ctx, calendar.Week, args)
	case "day":
		err = a.showCalendar(ctx, calendar.Day, args)
	case "availability":
		err = a.showAvailability(ctx)
	case "set-availability":
		err = a.setAvailability(ctx, args)
	case "confirm", "decline":
		err = a.decide(ctx, cmd, args)
	case "export":
		err = a.export(ctx, args)
	case "watch":
		err = a.watch(ctx, args)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
	}
	return err
}

func (a *app) newBoard() *service.CalendarBoard {
	first, last := a.cfg.GridHours()
	return service.NewCalendarBoard(a.client, a.bus, a.logger, service.BoardOptions{
		Grid:     grid.Options{FirstHour: first, LastHour: last},
		PageSize: a.cfg.PageSize(),
		Demo:     a.cfg.Calendar.Demo,
	})
}

// openBoard loads the profile and bookings and positions the board on the date in args.
func (a *app) openBoard(ctx context.Context, g calendar.Granularity, args []string) (*service.CalendarBoard, *model.TutorProfile, error) {
	profile, err := a.client.GetTutorProfile(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}

	board := a.newBoard()
	board.SetProfile(profile)
	nav := board.Navigator()
	nav.SetGranularity(g)
	if len(args) > 0 {
		day, err := time.Parse(dateLayout, args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%w: date %q: %v", errUsage, args[0], err)
		}
		// Noon keeps the anchor on its date when a DST gap swallows midnight.
		nav.SetAnchor(time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, profile.Location()))
	}

	if err := board.Refresh(ctx); err != nil {
		return nil, nil, err
	}
	return board, profile, nil
}

func (a *app) showCalendar(ctx context.Context, g calendar.Granularity, args []string) error {
	board, _, err := a.openBoard(ctx, g, args)
	if err != nil {
		return err
	}
	defer board.Close()
	return renderGrid(a.out, board.Label(), board.Grid(), board.Location())
}

func (a *app) newEditor(ctx context.Context) (*service.AvailabilityEditor, error) {
	editor := service.NewAvailabilityEditor(a.client, a.bus, a.logger)
	if err := editor.Load(ctx); err != nil {
		editor.Close()
		return nil, err
	}
	return editor, nil
}

func (a *app) showAvailability(ctx context.Context) error {
	editor, err := a.newEditor(ctx)
	if err != nil {
		return err
	}
	defer editor.Close()
	return renderSchedule(a.out, editor.Timezone(), editor.Profile().Version, editor.Schedule())
}

// availabilityFile is the document accepted by set-availability.
type availabilityFile struct {
	Timezone     string                         `yaml:"timezone"`
	Availability []model.WeeklyAvailabilityRule `yaml:"availability"`
}

func (a *app) setAvailability(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: set-availability needs a file", errUsage)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return a.applyAvailability(ctx, args[0], data)
}

// applyAvailability replaces the server availability with the document in data.
func (a *app) applyAvailability(ctx context.Context, source string, data []byte) error {
	var doc availabilityFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", source, err)
	}

	editor, err := a.newEditor(ctx)
	if err != nil {
		return err
	}
	defer editor.Close()

	if err := editor.ReplaceSchedule(schedule.FromRules(doc.Availability)); err != nil {
		return err
	}
	if doc.Timezone != "" {
		if err := editor.SetTimezone(doc.Timezone); err != nil {
			return err
		}
	}
	if !editor.Dirty() {
		fmt.Fprintln(a.out, "Availability unchanged.")
		return nil
	}
	if err := editor.Save(ctx); err != nil {
		return err
	}
	return renderSchedule(a.out, editor.Timezone(), editor.Profile().Version, editor.Schedule())
}

func (a *app) decide(ctx context.Context, decision string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: %s needs a booking id", errUsage, decision)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: booking id %q", errUsage, args[0])
	}

	board := a.newBoard()
	defer board.Close()
	if decision == "confirm" {
		return board.Confirm(ctx, id)
	}
	return board.Decline(ctx, id)
}

func (a *app) export(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: export needs a file name", errUsage)
	}
	board, profile, err := a.openBoard(ctx, calendar.Week, args[1:])
	if err != nil {
		return err
	}
	defer board.Close()

	wb := export.Workbook{
		Label:    board.Label(),
		Grid:     board.Grid(),
		Schedule: schedule.FromRules(profile.Availabilities),
		Timezone: profile.Timezone,
		Location: profile.Location(),
	}
	if err := export.WriteFile(args[0], wb); err != nil {
		return fmt.Errorf("export %s: %w", args[0], err)
	}
	fmt.Fprintf(a.out, "Wrote %s (%s)\n", args[0], wb.Label)
	return nil
}

// watch refreshes the board until ctx is cancelled and serves health and metrics. With a
// file argument the availability is kept in sync with that file.
func (a *app) watch(ctx context.Context, args []string) error {
	g, err := calendar.ParseGranularity(a.cfg.Calendar.DefaultView)
	if err != nil {
		g = calendar.Week
	}

	// A negative port turns the health server off.
	if a.cfg.Monitoring.HealthCheckPort >= 0 {
		go startHealthServer(ctx, a.cfg.Monitoring.HealthCheckPort, a.client, a.rdb, a.logger)
	}
	if a.cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, a.cfg.MetricsPort(), a.logger)
	}

	if len(args) > 0 {
		path := args[0]
		err := config.WatchFile(ctx, path, a.refresh, a.logger, func(data []byte) {
			if err := a.applyAvailability(ctx, path, data); err != nil {
				a.logger.Warn().Err(err).Str("path", path).Msg("availability file not applied")
			}
		})
		if err != nil {
			return err
		}
	}

	board, _, err := a.openBoard(ctx, g, nil)
	if err != nil {
		return err
	}
	defer board.Close()

	a.logger.Info().Dur("interval", a.refresh).Str("view", g.String()).Msg("watching calendar")
	a.reportPending(board)

	ticker := time.NewTicker(a.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("watch stopped")
			return nil
		case <-ticker.C:
			// The board follows today, so a long-running watch rolls over to the next week.
			board.Navigator().SetAnchor(time.Now())
			if err := board.Refresh(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				a.logger.Warn().Err(err).Msg("refresh failed")
				continue
			}
			a.reportPending(board)
		}
	}
}

func (a *app) reportPending(board *service.CalendarBoard) {
	evs := board.Events()
	pending := 0
	for i := range evs {
		if evs[i].IsPending() {
			pending++
		}
	}
	a.logger.Info().
		Str("range", board.Label()).
		Int("events", len(evs)).
		Int("pending", pending).
		Msg("calendar refreshed")
}
