package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/duewatch/internal/browser"
	"github.com/MrSnakeDoc/duewatch/internal/config"
	"github.com/MrSnakeDoc/duewatch/internal/format"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/index"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/monitor"
	"github.com/MrSnakeDoc/duewatch/internal/notify"
	"github.com/MrSnakeDoc/duewatch/internal/notify/telegram"
	"github.com/MrSnakeDoc/duewatch/internal/redis"
	"github.com/MrSnakeDoc/duewatch/internal/scheduler"
	"github.com/MrSnakeDoc/duewatch/internal/sources/portal"
	"github.com/MrSnakeDoc/duewatch/internal/store"
	redisstore "github.com/MrSnakeDoc/duewatch/internal/store/redis"
	"github.com/MrSnakeDoc/duewatch/internal/trigger"
	"github.com/MrSnakeDoc/duewatch/internal/utils"
	"github.com/MrSnakeDoc/duewatch/internal/version"
)

const apiTimeout = 15 * time.Second

type App struct {
	cfg    *config.Config
	logger logger.Logger
}

func New(cfg *config.Config, loggerClient logger.Logger) *App {
	return &App{cfg: cfg, logger: loggerClient}
}

// components are the collaborators shared by one-shot runs and serve mode.
type components struct {
	runner      *monitor.Runner
	store       store.SnapshotStore
	sink        notify.Sink
	redisClient *goredis.Client
	history     *redisstore.Store // nil unless snapshots live in redis
}

func (c *components) close(log logger.Logger) {
	if c.redisClient != nil {
		utils.MustClose(c.redisClient, "redis", log)
	}
}

// Run performs a single pass and returns its report.
func (a *App) Run(ctx context.Context, opts monitor.RunOptions) (*monitor.Report, error) {
	if err := a.cfg.ValidateRun(); err != nil {
		return nil, err
	}
	a.logger.Debug("configuration loaded", logger.Any("config", a.cfg.Redacted()))

	c, err := a.build(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer c.close(a.logger)

	return c.runner.Run(ctx, opts)
}

// Dispatch starts the remote workflow once.
func (a *App) Dispatch(ctx context.Context, inputs trigger.Inputs) error {
	if err := a.cfg.ValidateDispatch(); err != nil {
		return err
	}
	dispatch, err := a.dispatcher()
	if err != nil {
		return err
	}
	return dispatch(ctx, inputs)
}

// Serve runs the HTTP surface and the run scheduler until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	if err := a.cfg.ValidateServe(); err != nil {
		return err
	}
	a.logger.Infof("🚀 Starting duewatch v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("duewatch %s", version.String())
	a.logger.Debug("configuration loaded", logger.Any("config", a.cfg.Redacted()))

	memIndex := index.NewMemoryIndex()
	c, err := a.build(ctx, memIndex)
	if err != nil {
		return err
	}
	defer c.close(a.logger)

	// Serve the last snapshot until the first run completes
	syncer := scheduler.NewSnapshotSyncer(c.store, memIndex, a.logger)
	if err := syncer.Sync(ctx); err != nil {
		a.logger.Warn("failed to sync snapshot on startup, waiting for the first run",
			logger.Error(err))
	}

	runs := scheduler.NewRunScheduler(c.runner, a.logger)

	d := deps.Deps{
		Logger:          a.logger,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    a.cfg.AllowedHosts,
		AllowedCIDRS:    a.cfg.AllowedCIDRS,
		TrustProxy:      a.cfg.TrustProxy,
		MemoryIndex:     memIndex,
		SnapshotBackend: strings.ToLower(a.cfg.SnapshotBackend),
		RunTrigger:      runs.Trigger,
	}
	if c.history != nil {
		d.SnapshotPing = c.history.Ping
		d.SnapshotSavedAt = c.history.UpdatedAt
		d.RunStats = c.history.RunStats
	}
	if a.cfg.ValidateDispatch() == nil {
		if d.Dispatch, err = a.dispatcher(); err != nil {
			return err
		}
		a.logger.Info("workflow dispatch enabled",
			logger.String("repo", a.cfg.GitHubRepo),
			logger.String("workflow", a.cfg.GitHubWorkflow))
	}

	server := httpserver.New(a.cfg, a.logger, d)

	g, gctx := errgroup.WithContext(ctx)
	runs.Start(gctx)
	a.logger.Info("run scheduler started")

	g.Go(func() error {
		if err := server.Start(); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("⏳ Shutting down gracefully...")

		runs.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("✅ duewatch stopped cleanly")
	return nil
}

func (a *App) build(ctx context.Context, memIndex *index.MemoryIndex) (*components, error) {
	cfg := a.cfg

	locale, err := a.locale()
	if err != nil {
		return nil, err
	}
	markers := cfg.KindMarkers
	if len(markers) == 0 {
		markers = locale.KindMarkers
	}

	c := &components{sink: a.sink()}

	storeOpts := store.Options{
		Backend:        cfg.SnapshotBackend,
		FilePath:       cfg.SnapshotFile,
		RedisNamespace: cfg.RedisNamespace,
		Index:          memIndex,
	}
	if strings.EqualFold(cfg.SnapshotBackend, store.BackendRedis) {
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.redisClient = client
		storeOpts.RedisClient = client
	}

	snapshots, err := store.New(storeOpts)
	if err != nil {
		c.close(a.logger)
		return nil, err
	}
	c.store = snapshots

	var recorder monitor.RunRecorder
	if rs, ok := snapshots.(*redisstore.Store); ok {
		recorder = rs
		c.history = rs
	}
	if strings.EqualFold(cfg.SnapshotBackend, store.BackendMemory) && memIndex == nil {
		a.logger.Warn("memory snapshot backend does not outlive the process, every activity will be new")
	}

	c.runner = monitor.NewRunner(monitor.Deps{
		Source:      a.source(),
		Extractor:   portal.NewExtractor(markers),
		Store:       snapshots,
		Formatter:   format.NewFormatter(locale, cfg.Location()),
		Sink:        c.sink,
		Destination: cfg.TelegramChatID,
		Delivery: notify.DeliverOptions{
			Pause:     cfg.SendPause,
			Attempts:  cfg.SendAttempts,
			RetryWait: cfg.SendRetryWait,
			Markdown:  true,
		},
		Index:    memIndex,
		Recorder: recorder,
		Logger:   a.logger,
	})
	return c, nil
}

func (a *App) locale() (format.Locale, error) {
	locale, err := format.LocaleByName(a.cfg.Locale)
	if err != nil {
		return format.Locale{}, err
	}
	if a.cfg.LocaleFile == "" {
		return locale, nil
	}
	a.logger.Info("loading locale overrides", logger.String("file", a.cfg.LocaleFile))
	return format.LoadLocale(a.cfg.LocaleFile, locale)
}

func (a *App) source() monitor.RowSource {
	if a.cfg.PortalHTMLFile != "" {
		a.logger.Info("reading activities from a saved page",
			logger.String("file", a.cfg.PortalHTMLFile))
		return portal.NewFileLoader(a.cfg.PortalHTMLFile)
	}
	client := browser.New(browser.Options{
		Bin:            a.cfg.BrowserBin,
		Headless:       a.cfg.Headless,
		LoginURL:       a.cfg.PortalLoginURL,
		HomeMarker:     a.cfg.PortalHomeMarker,
		TableSelector:  a.cfg.PortalTableSelector,
		NavTimeout:     a.cfg.NavTimeout,
		ExtractTimeout: a.cfg.ExtractTimeout,
	}, a.logger)
	return browser.NewPortalSource(client, a.cfg.PortalUsername, a.cfg.PortalPassword, a.logger)
}

func (a *App) sink() notify.Sink {
	if a.cfg.DryRun {
		a.logger.Info("dry run, messages are logged instead of sent")
		return notify.NewLogSink(a.logger)
	}
	return telegram.New(a.cfg.TelegramAPIURL, a.cfg.TelegramToken, apiTimeout)
}

func (a *App) dispatcher() (func(context.Context, trigger.Inputs) error, error) {
	repo, err := trigger.ParseRepo(a.cfg.GitHubRepo)
	if err != nil {
		return nil, err
	}
	client, err := trigger.NewDispatcher(a.cfg.GitHubAPIURL, a.cfg.GitHubToken, apiTimeout)
	if err != nil {
		return nil, err
	}
	workflow, ref := a.cfg.GitHubWorkflow, a.cfg.GitHubRef

	return func(ctx context.Context, inputs trigger.Inputs) error {
		a.logger.Info("dispatching workflow",
			logger.String("repo", repo.String()),
			logger.String("workflow", workflow),
			logger.String("ref", ref),
			logger.Bool("send_all", inputs.SendAll))
		return client.Dispatch(ctx, repo, workflow, ref, inputs)
	}, nil
}
