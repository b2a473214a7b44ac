package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/api"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/db"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/download"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/fetcher"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/history"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/netmon"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/source"
)

func main() {
	listen := getenv("MYRIAD_LISTEN", "127.0.0.1:8844")
	dataDir := getenv("MYRIAD_DATA_DIR", "/data/myriad")
	dbPath := getenv("MYRIAD_DB", filepath.Join(dataDir, "myriad.db"))
	settingsPath := getenv("MYRIAD_SETTINGS", filepath.Join(dataDir, "settings.json"))
	baseURL := getenv("MYRIAD_SOURCE_BASE_URL", "")
	sourceExt := getenv("MYRIAD_SOURCE_EXT", ".cbz")
	probeURL := getenv("MYRIAD_NETWORK_PROBE_URL", "")
	unitConcurrency := getenvInt("MYRIAD_UNIT_CONCURRENCY", 3)

	log := newLogger(getenv("MYRIAD_LOG_LEVEL", "info"))
	log.Info().Str("version", versionString()).Msg("myriadd starting")

	if baseURL == "" {
		log.Fatal().Msg("MYRIAD_SOURCE_BASE_URL is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", dataDir).Msg("create data dir")
	}

	conn, err := db.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("db open")
	}
	journal := history.New(conn, history.WithLogger(log.With().Str("component", "journal").Logger()))

	settings := api.NewSettings(settingsPath)
	cfg, err := settings.Load()
	if err != nil {
		log.Warn().Err(err).Msg("load settings, using defaults")
	}

	store := download.NewStore()
	locators := source.NewRegistry(source.NewLibraryLocator(baseURL, sourceExt))
	fetch := fetcher.New(dataDir, locators,
		fetcher.WithUnitConcurrency(unitConcurrency),
		fetcher.WithLogger(log.With().Str("component", "fetcher").Logger()),
	)

	var sched *download.Scheduler
	monitor := netmon.New(probeURL,
		netmon.WithLogger(log.With().Str("component", "netmon").Logger()),
		netmon.WithOnChange(func(unrestricted bool) {
			if unrestricted {
				sched.Dispatch()
			}
		}),
	)

	sched = download.New(store, fetch, cfg,
		download.WithLogger(log.With().Str("component", "scheduler").Logger()),
		download.WithNetworkState(monitor),
		download.WithCleaner(fetch),
		download.WithEventSink(journal),
	)
	monitor.Start()

	server := &api.Server{
		Scheduler: sched,
		Tasks:     store,
		Progress:  download.NewAggregator(store),
		Events:    journal,
		Settings:  settings,
		Version:   versionString(),
		Log:       log.With().Str("component", "api").Logger(),
	}
	httpSrv := &http.Server{Handler: server.Handler()}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		log.Fatal().Err(err).Str("addr", listen).Msg("listen")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", listen).Msg("http listening")
		if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	monitor.Stop()
	sched.Stop()
	journal.Close()
	if cerr := conn.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("db close")
	}

	if err != nil {
		log.Error().Err(err).Msg("http server")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

func newLogger(levelStr string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stderr
	if isatty.IsTerminal(os.Stderr.Fd()) {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
