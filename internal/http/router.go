package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/joakimtj/eventdesk/internal/auth"
	"github.com/joakimtj/eventdesk/internal/cache"
	"github.com/joakimtj/eventdesk/internal/config"
	"github.com/joakimtj/eventdesk/internal/http/handlers"
	"github.com/joakimtj/eventdesk/internal/http/middlewares"
	"github.com/joakimtj/eventdesk/internal/observability"
	"github.com/joakimtj/eventdesk/internal/repo/sqlstore"
)

type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Store    *sqlstore.Store
	Cache    cache.Cache
	JWT      *auth.Manager
	Admin    handlers.AdminCredentials
	Prom     *observability.Prom
	Registry *prometheus.Registry
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(d.Cfg.ServiceName))
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))

	// health
	h := handlers.NewHealthHandler(d.Store.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(d.JWT)
	requireAuth := authMW.RequireAuth()
	requireAdmin := authMW.RequireRole(auth.RoleAdmin)
	adminOnly := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{requireAuth, requireAdmin, h}
	}

	limiter := middlewares.NewRateLimiter(d.Cfg.RateLimitRPS, d.Cfg.RateLimitBurst)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())
	api.Use(authMW.OptionalAuth())
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyBySubjectOrIP))

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(d.Admin, d.JWT, int(d.JWT.AccessTTL().Seconds()), d.Log)
	templatesHandler := handlers.NewTemplatesHandler(d.Store.Templates, d.Log)
	eventsHandler := handlers.NewEventsHandlerWithCache(d.Store.Events, d.Store.Coordinator, d.Store.Capacity, d.Cache, d.Log)
	registrationHandler := handlers.NewRegistrationHandler(d.Store.Registrations, d.Store.Coordinator, d.Cache, d.Log)
	attendeesHandler := handlers.NewAttendeesHandler(d.Store.Attendees, d.Cache, d.Log)

	api.POST("/auth/login", authHandler.Login)

	templates := api.Group("/templates")
	templates.GET("", templatesHandler.ListTemplates)
	templates.GET("/:id", templatesHandler.GetTemplate)
	templates.POST("", adminOnly(templatesHandler.CreateTemplate)...)
	templates.PUT("/:id", adminOnly(templatesHandler.UpdateTemplate)...)
	templates.DELETE("/:id", adminOnly(templatesHandler.DeleteTemplate)...)

	events := api.Group("/events")
	events.GET("", eventsHandler.ListEvents)
	events.GET("/filters", eventsHandler.FilterOptions)
	events.GET("/capacity/:id", eventsHandler.GetEventCapacity)
	events.GET("/id/:id", eventsHandler.GetEventById)
	events.GET("/:slug", eventsHandler.GetEventBySlug)
	events.POST("", adminOnly(eventsHandler.CreateEvent)...)
	events.PUT("/:id", adminOnly(eventsHandler.UpdateEvent)...)
	events.DELETE("/:id", adminOnly(eventsHandler.DeleteEvent)...)

	registrations := api.Group("/registrations")
	registrations.POST("", registrationHandler.Register)
	registrations.GET("", adminOnly(registrationHandler.ListRegistrations)...)
	registrations.GET("/event/:eventId", adminOnly(registrationHandler.ListByEvent)...)
	registrations.GET("/:id", adminOnly(registrationHandler.GetRegistration)...)
	registrations.PUT("/:id", adminOnly(registrationHandler.UpdateRegistration)...)
	registrations.DELETE("/:id", adminOnly(registrationHandler.DeleteRegistration)...)

	attendees := api.Group("/attendees")
	attendees.POST("", attendeesHandler.CreateAttendee)
	attendees.GET("", adminOnly(attendeesHandler.ListAttendees)...)
	attendees.GET("/registration/:registrationId", adminOnly(attendeesHandler.ListByRegistration)...)
	attendees.GET("/:id", adminOnly(attendeesHandler.GetAttendee)...)
	attendees.PUT("/:id", adminOnly(attendeesHandler.UpdateAttendee)...)
	attendees.DELETE("/:id", adminOnly(attendeesHandler.DeleteAttendee)...)

	return r
}
