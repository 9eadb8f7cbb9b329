package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/goliatone/go-homelab/components/dashboard"
	"github.com/goliatone/go-homelab/components/dashboard/commands"
	"github.com/goliatone/go-homelab/components/dashboard/gorouter"
)

type config struct {
	Addr          string   `default:":8080" env:"HOMELAB_ADDR" help:"Listen address."`
	Env           string   `default:"development" enum:"development,production" env:"HOMELAB_ENV" help:"Runtime environment (controls log format)."`
	Store         string   `default:"sqlite" enum:"memory,sqlite,mongo" env:"HOMELAB_STORE" help:"Document store backend."`
	SQLitePath    string   `name:"sqlite-path" default:"homelab.db" env:"HOMELAB_SQLITE_PATH" help:"SQLite database file."`
	MongoURI      string   `name:"mongo-uri" env:"HOMELAB_MONGO_URI" help:"MongoDB connection URI."`
	MongoDatabase string   `name:"mongo-database" default:"homelab" env:"HOMELAB_MONGO_DATABASE" help:"MongoDB database name."`
	Manifests     []string `type:"existingfile" env:"HOMELAB_MANIFESTS" sep:"," help:"Extra widget manifests to register."`
	Seed          bool     `default:"true" negatable:"" env:"HOMELAB_SEED" help:"Store the starter dashboard when none exists."`
	User          string   `default:"owner" env:"HOMELAB_USER" help:"User id preferences are stored under."`
	Locale        string   `default:"en" env:"HOMELAB_LOCALE" help:"Default locale for widget names."`
	BasePath      string   `name:"base-path" env:"HOMELAB_BASE_PATH" help:"Prefix for every route."`
	Title         string   `default:"Homelab" env:"HOMELAB_TITLE" help:"Page title."`
}

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	var cfg config
	kctx := kong.Parse(&cfg,
		kong.Name("homelabd"),
		kong.Description("Homelab dashboard server."),
		kong.UsageOnError(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.FatalIfErrorf(run(ctx, cfg))
}

func run(ctx context.Context, cfg config) error {
	logger, err := newLogger(cfg.Env)
	if err != nil {
		return fmt.Errorf("homelabd: build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	app, err := newApp(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		Service:   app.service,
		Renderer:  app.renderer,
		Bus:       app.bus,
		Telemetry: app.telemetry,
		BasePath:  cfg.BasePath,
		Page:      dashboard.PageOptions{Title: cfg.Title},
		ViewerResolver: func(rc router.Context) dashboard.ViewerContext {
			locale := rc.Query("locale")
			if locale == "" {
				locale = cfg.Locale
			}
			return dashboard.ViewerContext{UserID: cfg.User, Locale: locale}
		},
	}); err != nil {
		return fmt.Errorf("homelabd: register routes: %w", err)
	}

	logger.Info("dashboard ready",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.String("base_path", cfg.BasePath),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(cfg.Addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	}
}

type application struct {
	service   *dashboard.Service
	registry  *dashboard.Registry
	bus       *dashboard.EventBus
	renderer  dashboard.Renderer
	telemetry dashboard.ZapTelemetry
}

// newApp wires the dashboard service and runs the bootstrap step.
func newApp(ctx context.Context, cfg config, store dashboard.KVStore, logger *zap.Logger) (*application, error) {
	telemetry := dashboard.ZapTelemetry{Logger: logger}
	registry := dashboard.NewRegistry()
	bus := dashboard.NewEventBus()
	service := dashboard.NewService(dashboard.Options{
		Store:       store,
		Registry:    registry,
		RefreshHook: bus,
		Telemetry:   telemetry,
		Logger:      logger,
	})

	seed := commands.NewSeedDashboardCommand(registry, service, telemetry)
	if err := seed.Execute(ctx, commands.SeedDashboardInput{Manifests: cfg.Manifests, SeedWidgets: cfg.Seed}); err != nil {
		return nil, fmt.Errorf("homelabd: bootstrap: %w", err)
	}

	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("homelabd: templates: %w", err)
	}
	return &application{
		service:   service,
		registry:  registry,
		bus:       bus,
		renderer:  renderer,
		telemetry: telemetry,
	}, nil
}

func newLogger(env string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if env == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.EncoderConfig.FunctionKey = "func"
	return zapConfig.Build()
}
