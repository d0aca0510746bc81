package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/quadrental/internal/handler/api"
	"github.com/vladislavdragonenkov/quadrental/internal/handler/middleware"
	"github.com/vladislavdragonenkov/quadrental/internal/health"
)

// Config — настройки HTTP-слоя, не зависящие от сервера.
type Config struct {
	AllowOrigins   []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Handlers собирает обработчики ресурсов API.
type Handlers struct {
	Quads        *api.QuadHandler
	Reservations *api.ReservationHandler
	Links        *api.LinkHandler
}

// NewHandlers создаёт обработчики поверх команд и запросов сервиса.
func NewHandlers(commands api.RentalCommands, queries api.RentalQueries) Handlers {
	return Handlers{
		Quads:        api.NewQuadHandler(commands, queries),
		Reservations: api.NewReservationHandler(commands, queries),
		Links:        api.NewLinkHandler(commands, queries),
	}
}

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// NewRouter регистрирует middleware и маршруты; healthHandler может быть nil.
func NewRouter(engine *gin.Engine, cfg Config, logger *log.Entry, handlers Handlers, healthHandler *health.Handler) {
	setupMiddleware(engine, cfg, logger)
	setupRoutes(engine, handlers, healthHandler)
}

func setupMiddleware(engine *gin.Engine, cfg Config, logger *log.Entry) {
	// Recovery первым, чтобы ловить паники остальных middleware.
	engine.Use(middleware.Recovery(logger))
	engine.Use(middleware.NewCORS(cfg.AllowOrigins))
	engine.Use(middleware.Logging(logger))
	engine.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, handlers Handlers, healthHandler *health.Handler) {
	if healthHandler != nil {
		engine.GET("/healthz", gin.WrapH(healthHandler))
		engine.GET("/livez", gin.WrapF(health.LivenessHandler))
		engine.GET("/readyz", gin.WrapF(healthHandler.ReadinessHandler))
	}

	v1 := engine.Group("/api/v1")

	addRoutes(v1.Group("/quads"), []route{
		{Method: http.MethodGet, Path: "", Handler: handlers.Quads.List},
		{Method: http.MethodPost, Path: "", Handler: handlers.Quads.Create},
		{Method: http.MethodGet, Path: "/:id", Handler: handlers.Quads.Get},
		{Method: http.MethodPut, Path: "/:id", Handler: handlers.Quads.Update},
		{Method: http.MethodDelete, Path: "/:id", Handler: handlers.Quads.Delete},
		{Method: http.MethodGet, Path: "/:id/links", Handler: handlers.Quads.Links},
	})

	addRoutes(v1.Group("/reservations"), []route{
		{Method: http.MethodGet, Path: "", Handler: handlers.Reservations.List},
		{Method: http.MethodPost, Path: "", Handler: handlers.Reservations.Create},
		{Method: http.MethodPost, Path: "/quote", Handler: handlers.Reservations.Quote},
		{Method: http.MethodGet, Path: "/:id", Handler: handlers.Reservations.Get},
		{Method: http.MethodPut, Path: "/:id", Handler: handlers.Reservations.Update},
		{Method: http.MethodDelete, Path: "/:id", Handler: handlers.Reservations.Delete},
		{Method: http.MethodGet, Path: "/:id/links", Handler: handlers.Reservations.Links},
	})

	addRoutes(v1.Group("/links"), []route{
		{Method: http.MethodGet, Path: "/:id", Handler: handlers.Links.Get},
		{Method: http.MethodPut, Path: "/:id", Handler: handlers.Links.UpdateHelmets},
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		g.Handle(r.Method, r.Path, r.Handler)
	}
}
