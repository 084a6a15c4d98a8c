package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/eor-ics/internal/calendar"
	"github.com/pfrederiksen/eor-ics/internal/config"
	"github.com/pfrederiksen/eor-ics/internal/event"
	"github.com/pfrederiksen/eor-ics/internal/logger"
	"github.com/pfrederiksen/eor-ics/internal/scraper"
	"github.com/pfrederiksen/eor-ics/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// DefaultSchedule regenerates the calendar every six hours.
const DefaultSchedule = "0 */6 * * *"

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
)

// flagBindings maps config keys to the persistent flags that override them.
var flagBindings = map[string]string{
	"base_url":     "base-url",
	"max_pages":    "max-pages",
	"out_dir":      "out-dir",
	"out_file":     "out-file",
	"log_level":    "log-level",
	"timezone":     "timezone",
	"enrich":       "enrich",
	"recency_days": "recency-days",
	"placeholder":  "placeholder",
	"verify":       "verify",
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "eor-ics",
		Short: "Publish Eye of Riyadh events as an iCalendar feed",
		Long: `Scrapes the Eye of Riyadh event listings and writes them to a single
.ics file that calendar clients can subscribe to.

A calendar is always written, even when the site cannot be reached; only
configuration and output errors cause a non-zero exit.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "YAML config file")
	flags.String("base-url", config.DefaultBaseURL, "Event listing URL")
	flags.Int("max-pages", config.DefaultMaxPages, "Maximum listing pages to probe")
	flags.String("out-dir", config.DefaultOutDir, "Output directory")
	flags.String("out-file", config.DefaultOutFile, "Calendar file name")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("timezone", config.DefaultTimezone, "IANA timezone for event times")
	flags.Bool("enrich", true, "Fetch each event's detail page for missing fields")
	flags.Int("recency-days", config.DefaultRecencyDays, "Keep past events up to this many days old")
	flags.Bool("placeholder", false, "Publish a placeholder event when nothing is found")
	flags.Bool("verify", true, "Re-read the written calendar and check it parses")
	flags.StringVar(&flagFormat, "format", "text", "Report format: text or json")
	flags.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging and report details")

	for key, name := range flagBindings {
		// Lookup cannot fail for flags registered above.
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	cmd.AddCommand(newScheduleCmd(v))

	return cmd
}

// runGenerate is the main command logic
func runGenerate(cmd *cobra.Command, v *viper.Viper) error {
	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	result, err := Generate(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// loadConfig reads the optional config file, resolves the configuration and
// installs the process logger.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	if err := config.ReadFile(v, flagConfig); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	level, ok := logger.ParseLevel(cfg.LogLevel)
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))
	if !ok {
		logger.Warn("unknown log level, using info", logger.Fields{"log_level": cfg.LogLevel})
	}

	return cfg, nil
}

// Generate scrapes the site and publishes the calendar described by cfg.
// Scrape failures never surface here; the returned error is limited to the
// output directory or file.
func Generate(ctx context.Context, cfg *config.Config, opts ...scraper.Option) (*OutputResult, error) {
	started := time.Now()
	metrics := logger.NewMetrics()

	store, err := storage.New(cfg.OutDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	logger.Info("scraping events", logger.Fields{
		"base_url":  cfg.BaseURL,
		"max_pages": cfg.MaxPages,
		"enrich":    cfg.Enrich,
	})

	opts = append([]scraper.Option{scraper.WithMetrics(metrics)}, opts...)
	events := scraper.New(cfg, opts...).FetchEvents(ctx)

	// An interrupted scrape is incomplete; the published calendar stays as it is.
	if err := ctx.Err(); err != nil {
		logger.Warn("run cancelled, keeping existing calendar", logger.Fields{"path": store.Path(cfg.OutFile)})
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	placeholder := false
	if len(events) == 0 {
		if cfg.Placeholder {
			events = []*event.Event{calendar.Placeholder(started, cfg.Location, cfg.BaseURL)}
			placeholder = true
			logger.Warn("no events found, publishing placeholder", nil)
		} else {
			logger.Warn("no events found, publishing empty calendar", nil)
		}
	}

	data := calendar.GenerateICS(events, calendar.Options{
		Location:     cfg.Location,
		BaseURL:      cfg.BaseURL,
		CalendarName: cfg.CalendarName,
		Now:          func() time.Time { return started },
	})

	path, err := store.WriteCalendar(cfg.OutFile, []byte(data))
	if err != nil {
		return nil, fmt.Errorf("writing calendar: %w", err)
	}

	logger.Info("calendar written", logger.Fields{
		"dir":         store.Dir(),
		"path":        path,
		"events":      len(events),
		"placeholder": placeholder,
	})

	if cfg.Verify {
		verifyOutput(store, cfg.OutFile, len(events))
	}

	metrics.SetGauge("calendar.events", float64(len(events)))
	metrics.RecordTiming("run.duration", time.Since(started))

	return &OutputResult{
		GeneratedAt: started.UTC(),
		OutputPath:  path,
		EventCount:  len(events),
		Placeholder: placeholder,
		Events:      events,
		Metrics:     metrics.GetSnapshot(),
	}, nil
}

// verifyOutput re-reads the written calendar and checks it holds want events.
// Problems are logged only; the file has already been published.
func verifyOutput(store *storage.Storage, name string, want int) {
	data, err := store.ReadCalendar(name)
	if err != nil {
		logger.Error("calendar verification failed", nil, err)
		return
	}

	got, err := calendar.Verify(data)
	if err != nil {
		logger.Error("calendar verification failed", logger.Fields{"path": store.Path(name)}, err)
		return
	}
	if got != want {
		logger.Error("calendar verification failed", logger.Fields{
			"path":   store.Path(name),
			"events": got,
			"want":   want,
		}, fmt.Errorf("event count mismatch"))
		return
	}

	logger.Debug("calendar verified", logger.Fields{"events": got})
}

func newScheduleCmd(v *viper.Viper) *cobra.Command {
	var (
		spec   string
		runNow bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Regenerate the calendar on a cron schedule",
		Long: `Runs in the foreground and regenerates the calendar whenever the cron
expression fires, evaluated in the configured timezone. Stops on SIGINT or
SIGTERM after the current run finishes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSchedule(ctx, cfg.Location, spec, runNow, func(runCtx context.Context) {
				if _, err := Generate(runCtx, cfg); err != nil {
					logger.Error("scheduled run failed", nil, err)
				}
			})
		},
	}

	cmd.Flags().StringVar(&spec, "cron", DefaultSchedule, "Cron expression (5 fields)")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Generate once immediately on start")

	return cmd
}

// runSchedule calls job on every tick of spec until ctx is done. Jobs get a
// context that is not cancelled with ctx, so a run in progress completes.
func runSchedule(ctx context.Context, loc *time.Location, spec string, runNow bool, job func(context.Context)) error {
	runCtx := context.WithoutCancel(ctx)
	run := func() { job(runCtx) }

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, run); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	if runNow {
		run()
	}

	c.Start()
	logger.Info("scheduler started", logger.Fields{"cron": spec, "timezone": loc.String()})

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("scheduler stopped", nil)
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
