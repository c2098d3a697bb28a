package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	_ "github.com/Tweltz1/Project-Tracking/docs"
	"github.com/Tweltz1/Project-Tracking/internal/application/part"
	"github.com/Tweltz1/Project-Tracking/internal/domain/lifecycle"
	"github.com/Tweltz1/Project-Tracking/internal/domain/repository"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/identity"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/memory"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/metrics"
	infrapdf "github.com/Tweltz1/Project-Tracking/internal/infrastructure/pdf"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/postgres"
	infraredis "github.com/Tweltz1/Project-Tracking/internal/infrastructure/redis"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/sqlite"
	httpRouter "github.com/Tweltz1/Project-Tracking/internal/interfaces/http"
	"github.com/Tweltz1/Project-Tracking/pkg/config"
	"github.com/Tweltz1/Project-Tracking/pkg/logger"
)

// @title           Project Tracking API
// @version         1.0
// @description     Registro de piezas con entradas, salidas, estado e historial auditado.
// @BasePath        /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("auth", cfg.Auth.Mode).
		Msg("iniciando aplicación")

	ctx := context.Background()
	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("abrir almacén de piezas")
	}
	defer closeStore()

	verifier, err := newVerifier(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar autenticación")
	}

	m := metrics.New()
	partUC := part.NewUseCase(
		repo,
		lifecycle.NewEngine(nil),
		infrapdf.NewLabelGenerator(cfg.Label.BaseURL),
		m,
		log.WithField("component", "parts"),
		cfg.Store.MaxRetries,
	)

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:        cfg.App.Name,
		SwaggerFile: swaggerFile(cfg.Docs.SwaggerFile, log),
	}, httpRouter.RouterDeps{
		PartUC:   partUC,
		Verifier: verifier,
		Observer: m,
		Metrics:  m.Handler(),
		Log:      log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStore abre el almacén según STORE_DRIVER. La función devuelta libera sus recursos.
func openStore(ctx context.Context, cfg *config.Config) (repository.PartRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return memory.NewPartRepository(), func() {}, nil

	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewPartRepository(pool), pool.Close, nil

	case config.StoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		return infraredis.NewPartRepository(client, ""), func() { _ = client.Close() }, nil

	case config.StoreSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}
	return nil, nil, fmt.Errorf("driver de almacén desconocido: %q", cfg.Store.Driver)
}

// newVerifier devuelve nil en modo none: la API queda abierta.
func newVerifier(ctx context.Context, cfg *config.Config, log *logger.Logger) (identity.TokenVerifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthHMAC:
		return identity.NewHMACVerifier(cfg.JWT.Secret, cfg.JWT.Issuer), nil
	case config.AuthOIDC:
		v, err := identity.NewOIDCVerifier(ctx, cfg.OIDC, log.WithField("component", "oidc"))
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	log.Warn().Msg("AUTH_MODE=none: la API no exige token")
	return nil, nil
}

// swaggerFile desactiva /docs si el documento no existe (el middleware aborta sin él).
func swaggerFile(path string, log *logger.Logger) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn().Str("file", path).Msg("documento OpenAPI no encontrado, /docs desactivado")
		return ""
	}
	return path
}
