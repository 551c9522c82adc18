package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/auth"
	"github.com/jobscout/jobscout/internal/config"
	"github.com/jobscout/jobscout/internal/domain/user"
	"github.com/jobscout/jobscout/internal/geo"
	"github.com/jobscout/jobscout/internal/http/handlers"
	"github.com/jobscout/jobscout/internal/http/middlewares"
	"github.com/jobscout/jobscout/internal/mail"
	"github.com/jobscout/jobscout/internal/observability"
	"github.com/jobscout/jobscout/internal/ratelimit"
	"github.com/jobscout/jobscout/internal/repo/postgres"
	"github.com/jobscout/jobscout/internal/storage"
)

// Deps carries everything the router wires together. main builds it once.
type Deps struct {
	Cfg      config.Config
	Pool     *pgxpool.Pool
	Prom     *observability.Prom
	Tokens   *auth.Manager
	Mailer   mail.Mailer
	Geocoder geo.Geocoder
	Store    storage.Uploader
	Limiter  ratelimit.Store
}

const maxBodyBytes = 12 << 20 // multipart resume uploads included

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	respond := apperrors.Responder{Debug: !d.Cfg.Production()}

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("jobscout"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(d.Prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware([]string{d.Cfg.FrontendOrigin}))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	r.NoRoute(respond.NoRoute)

	// operational endpoints stay outside the API group
	health := handlers.NewHealthHandler(d.Pool)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// repositories
	usersRepo := postgres.NewUsersRepo(d.Pool, d.Prom)
	jobsRepo := postgres.NewJobsRepo(d.Pool, d.Prom)

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, d.Tokens, d.Mailer,
		d.Cfg.CookieExpireDays, d.Cfg.Production(), respond)
	jobHandler := handlers.NewJobHandler(jobsRepo, usersRepo, d.Geocoder, d.Store, respond)
	userHandler := handlers.NewUserHandler(usersRepo, jobsRepo, d.Store, d.Cfg.Production(), respond)

	authMW := middlewares.NewAuthMiddleware(d.Tokens, usersRepo, respond)
	limiter := middlewares.NewRateLimiter(d.Limiter, d.Cfg.RateLimit, d.Cfg.RateLimitWindow, respond)

	api := r.Group("/api/v1")

	// public — nobody is identified yet, so the limiter keys by address
	public := api.Group("")
	public.Use(limiter.Middleware(middlewares.KeyByIP))

	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/password/forgot", authHandler.ForgotPassword)
	public.PUT("/password/reset/:token", authHandler.ResetPassword)

	public.GET("/jobs", jobHandler.List)
	public.GET("/stats/:topic", jobHandler.Stats)

	// authenticated — auth runs first so the limiter can key by account
	authed := api.Group("")
	authed.Use(authMW.RequireAuth(), limiter.Middleware(middlewares.KeyByUserOrIP))

	authed.GET("/auth/check", authHandler.Check)
	authed.GET("/logout", authHandler.Logout)
	authed.PUT("/password/update", authHandler.UpdatePassword)
	authed.GET("/job/:id/:slug", jobHandler.Get)
	authed.GET("/jobs/activity", userHandler.Activity)
	authed.GET("/profile", userHandler.Profile)
	authed.PUT("/profile/update", userHandler.UpdateProfile)
	authed.DELETE("/profile/delete", userHandler.DeleteSelf)
	authed.PUT("/user/resume", userHandler.UploadResume)
	authed.GET("/user/:id", userHandler.Get)

	// job seekers
	authed.GET("/jobs/applied", authMW.RequireRole(user.RoleUser), userHandler.AppliedJobs)
	authed.PUT("/job/:id/apply", authMW.RequireRole(user.RoleUser), jobHandler.Apply)

	// employers
	employer := authMW.RequireRole(user.RoleEmployer, user.RoleAdmin)
	authed.GET("/jobs/published", employer, userHandler.PublishedJobs)
	authed.POST("/job/new", employer, jobHandler.Create)
	authed.PUT("/job/:id", employer, jobHandler.Update)
	authed.DELETE("/job/:id", employer, jobHandler.Delete)
	authed.GET("/job/:id/applicants", employer, jobHandler.Applicants)

	// admin
	admin := authMW.RequireRole(user.RoleAdmin)
	authed.GET("/users", admin, userHandler.AdminList)
	authed.DELETE("/user/:id", admin, userHandler.AdminDelete)

	return r
}
