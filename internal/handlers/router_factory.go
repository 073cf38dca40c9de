package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"ideascentral/internal/config"
	"ideascentral/internal/middleware"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/services"
	"ideascentral/internal/version"
)

// NewRouter creates the gin engine with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	authService services.AuthServiceInterface,
	recordService services.RecordServiceInterface,
	evaluationService services.EvaluationServiceInterface,
	classifier services.Classifier,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger))
	router.Use(requestLogger(logger))

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "backend", "store": cfg.Store.Backend})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling(cfg.OpenTelemetry.ServiceName)...)

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		router.Use(cors.New(corsConfig))
	}

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug || cfg.IsTest {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	authHandler := NewAuthHandler(authService, cfg, logger)
	problemHandler := NewProblemHandler(recordService, logger)
	ideaHandler := NewIdeaHandler(recordService, evaluationService, logger)
	classifyHandler := NewClassifyHandler(classifier)
	routeListing := NewRouteListingHandler(cfg.OpenTelemetry.ServiceName)

	requireAuth := middleware.RequireAuth(authService)
	requireStaff := middleware.RequireRole(models.RoleFaculty, models.RoleAdmin)
	limiter := middleware.NewRateLimiter(cfg.RateLimit).Middleware()

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, version.Get("backend"))
		})
		v1.GET("/routes", routeListing.GetRouteListingJSON)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", limiter, authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/register", limiter, authHandler.Register)
			auth.GET("/signup/status", authHandler.SignupStatus)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.PUT("/password", requireAuth, limiter, authHandler.ChangePassword)
		}

		problems := v1.Group("/problems")
		problems.Use(requireAuth)
		{
			problems.GET("", problemHandler.ListProblems)
			problems.POST("", limiter, problemHandler.CreateProblem)
			problems.GET("/stats", problemHandler.GetStats)
			problems.GET("/:id", problemHandler.GetProblem)
			problems.PUT("/:id/status", problemHandler.UpdateProblemStatus)
			problems.POST("/:id/view", problemHandler.RecordView)
			problems.GET("/:id/comments", problemHandler.ListComments)
			problems.POST("/:id/comments", limiter, problemHandler.CreateComment)
		}

		ideas := v1.Group("/ideas")
		ideas.Use(requireAuth)
		{
			ideas.GET("", ideaHandler.ListIdeas)
			ideas.POST("", limiter, ideaHandler.CreateIdea)
			ideas.GET("/:id", ideaHandler.GetIdea)
			ideas.POST("/:id/review", requireStaff, ideaHandler.StartReview)
			ideas.GET("/:id/evaluations", requireStaff, ideaHandler.ListIdeaEvaluations)
			ideas.POST("/:id/evaluations", requireStaff, limiter, ideaHandler.Evaluate)
		}

		v1.GET("/evaluations", requireAuth, requireStaff, ideaHandler.ListEvaluations)
		v1.POST("/classify", requireAuth, limiter, classifyHandler.Classify)
	}

	router.NoRoute(func(c *gin.Context) {
		StandardizeHTTPError(c, http.StatusNotFound, "Route not found", c.Request.URL.Path)
	})

	routeListing.CollectRoutes(router)
	return router
}

// requestLogger logs one structured line per request at a level that follows the status
func requestLogger(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
