package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/automaxprocs/maxprocs"

	"organizer/internal/battery"
	"organizer/internal/config"
	"organizer/internal/epd"
	"organizer/internal/fonts"
	"organizer/internal/httpcache"
	"organizer/internal/log"
	"organizer/internal/notify"
	"organizer/internal/pipeline"
	"organizer/internal/snapshot"
	"organizer/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	renderOnly bool
	dump       bool
	initConfig bool
	debug      bool
}

func main() {
	flags := parseFlags()

	if flags.initConfig {
		if err := config.Save(flags.configPath, config.DefaultConfig()); err != nil {
			log.Error("failed to write default config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
		log.Info("default config written", "config_path", flags.configPath)
		return
	}

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		log.Error("failed to set GOMAXPROCS", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		log.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	level := log.ParseLevel(conf.LogLevel)
	if flags.debug {
		level = log.LevelDebug
	}
	log.SetDefault(log.New(log.Options{Out: os.Stderr, Level: level, JSON: conf.LogFormat == "json"}))

	log.Info("organizer starting",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"display_driver", conf.Display.Driver,
		"battery_source", conf.Battery.Source,
		"ics_count", len(conf.ICS),
		"once", flags.once,
		"render_only", flags.renderOnly,
		"dump", flags.dump,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, flags); err != nil {
		log.Error("organizer failed", err)
		os.Exit(1)
	}
	log.Info("organizer exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	lib := fonts.NewLibrary(conf)
	defer lib.Close()

	fetcher := httpcache.New(filepath.Join(conf.StateDir, "cache"))
	src, err := snapshot.NewSource(conf.Snapshot, fetcher)
	if err != nil {
		return err
	}

	reader, alarm := battery.New(conf.Battery)

	alerter, err := notify.New(ctx, conf.Alerts.SNSTopicARN, conf.Location(), conf.StateDir)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Config:    conf,
		Snapshot:  src,
		State:     snapshot.NewState(conf.StateDir),
		Calendars: fetcher,
		Faces:     lib,
		Battery:   reader,
		Alarm:     alarm,
		Logger:    log.Default(),
	}
	if alerter != nil {
		opts.Alerter = alerter
	}
	// Driver "none" has no panel to flush to.
	if !flags.renderOnly && conf.Display.Driver != "none" {
		driver := conf.Display.Driver
		opts.Panel = func() (epd.Panel, error) { return epd.Open(driver) }
	}
	// The status server serves the preview from the state dir, so the
	// daemon always dumps.
	if flags.dump || !flags.once {
		opts.DumpDir = conf.StateDir
	}
	p := pipeline.New(opts)

	if flags.once {
		res, err := p.Run(ctx, false)
		if err != nil {
			return err
		}
		log.Info("refresh finished", "rendered", res.Rendered, "battery", res.Battery)
		return nil
	}

	c := cron.New(
		cron.WithLocation(conf.Location()),
		cron.WithLogger(cronLogger{log.Default()}),
	)
	if _, err := c.AddFunc(conf.RefreshCron, func() { refresh(ctx, p) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	// Draw once at startup instead of waiting for the first tick.
	go refresh(ctx, p)

	return web.NewServer(conf, reader, p).ListenAndServe(ctx)
}

func refresh(ctx context.Context, p *pipeline.Pipeline) {
	res, err := p.Run(ctx, false)
	if err != nil {
		log.Error("refresh failed", err)
		return
	}
	log.Info("refresh finished", "rendered", res.Rendered, "battery", res.Battery)
}

// cronLogger adapts log.Logger to cron.Logger.
type cronLogger struct{ l *log.Logger }

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug(msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...any) { c.l.Error(msg, err, kv...) }

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/organizer/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh and exit")
	flag.BoolVar(&cfg.renderOnly, "render-only", false, "Render only; do not touch display hardware")
	flag.BoolVar(&cfg.dump, "dump", false, "Dump debug artifacts (black.bin, red.bin, preview.png) to the state dir")
	flag.BoolVar(&cfg.initConfig, "init-config", false, "Write a default config to -config and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
