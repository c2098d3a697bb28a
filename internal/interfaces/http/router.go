package http

import (
	"net/http"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Tweltz1/Project-Tracking/internal/application/part"
	"github.com/Tweltz1/Project-Tracking/internal/infrastructure/identity"
	"github.com/Tweltz1/Project-Tracking/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PartUC   *part.UseCase
	Verifier identity.TokenVerifier // nil = sin autenticación
	Observer HTTPObserver           // nil = sin métricas HTTP
	Metrics  http.Handler           // nil = sin /metrics
	Log      *logger.Logger
}

// AppConfig opciones de la aplicación Fiber.
type AppConfig struct {
	Name        string
	SwaggerFile string // vacío = sin /docs
}

// NewApp construye la aplicación Fiber con middlewares globales y rutas.
func NewApp(cfg AppConfig, deps RouterDeps) *fiber.App {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(AccessLog(deps.Log, deps.Observer))

	// Swagger UI: http://localhost:<port>/docs
	if cfg.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.SwaggerFile,
			Path:     "docs",
			Title:    "Project Tracking API",
		}))
	}

	app.Get("/health", Health(deps.PartUC))
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.Verifier))
	h := NewPartHandler(deps.PartUC, deps.Log)

	// Variantes con ?id= que usa el front-end
	api.Get("/part", h.Get)
	api.Put("/parts", h.Update)
	api.Delete("/parts", h.Delete)

	api.Get("/parts", h.List)
	api.Post("/parts", h.Create)
	api.Post("/parts/checkinout", h.CheckInOut)
	api.Get("/parts/:id", h.Get)
	api.Put("/parts/:id", h.Update)
	api.Delete("/parts/:id", h.Delete)
	api.Post("/parts/:id/status", h.UpdateStatus)
	api.Get("/parts/:id/label", h.Label)
}
