package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/middlewares"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// readinessGate answers 503 until the database is connected. /healthz always passes.
func readinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

func corsConfig(settings *config.Settings) cors.Config {
	cfg := cors.DefaultConfig()
	origins := settings.CorsOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", middlewares.CorrelationHeader)
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	return cfg
}

// NewRouter builds the whole HTTP surface. It reads the global DB lazily, so it
// can be built before the database is connected.
func NewRouter(logger *logrus.Logger) *gin.Engine {
	settings := config.GetSettings()

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(readinessGate())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig(settings)))
	if settings.Server.RateLimitPerMinute > 0 {
		r.Use(middlewares.RateLimitMiddleware(settings.Server.RateLimitPerMinute))
	}
	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	auth := r.Group("/auth")
	auth.POST("/login", loginHandler())
	auth.POST("/token", apiTokenHandler())
	auth.POST("/logout", middlewares.RequireUser(), logoutHandler())

	clients := r.Group("/clients", middlewares.RequireUser())
	clients.GET("", listClientsHandler())
	clients.POST("", middlewares.RequireSuperAdmin(), createClientHandler())
	clients.PUT("/:clientId", middlewares.RequireSuperAdmin(), updateClientHandler())
	clients.DELETE("/:clientId", middlewares.RequireSuperAdmin(), deleteClientHandler())

	scoped := clients.Group("/:clientId", middlewares.ClientScopeMiddleware())
	scoped.GET("", getClientHandler())

	scoped.GET("/parties", listPartiesHandler())
	scoped.GET("/parties/search", searchPartiesHandler())
	scoped.POST("/parties", createPartyHandler())
	scoped.PUT("/parties/:id", updatePartyHandler())
	scoped.DELETE("/parties/:id", deletePartyHandler())

	scoped.GET("/transactions", listTransactionsHandler())
	scoped.POST("/transactions", createTransactionHandler())
	scoped.DELETE("/transactions/:id", deleteTransactionHandler())
	scoped.GET("/transactions/:id/attachments", listAttachmentsHandler())
	scoped.GET("/transactions/:id/posting-status", postingStatusHandler())

	scoped.GET("/sessions/:dateKey", getSessionHandler())
	scoped.PUT("/sessions/:dateKey", upsertSessionHandler())

	scoped.GET("/reports/daily", dailyReportHandler())
	scoped.GET("/reports/party", partyLedgerHandler())
	scoped.GET("/dashboard", dashboardHandler())

	uploads := r.Group("/uploads", middlewares.RequireUser())
	uploads.POST("/sign", signUploadHandler())
	uploads.POST("/complete", completeUploadHandler())
	uploads.GET("/object", uploadObjectHandler())

	admin := r.Group("/admin", middlewares.RequireUser(), middlewares.RequireSuperAdmin())
	admin.GET("/users", listUsersHandler())
	admin.POST("/users", createUserHandler())
	admin.POST("/users/:id/password", resetPasswordHandler())
	admin.POST("/users/:id/active", setUserActiveHandler())

	r.POST("/pubsub", ledgerEventPushHandler())
	// ops tooling: make a FAILED or DEAD outbox record due again
	r.POST("/internal/ops/outbox/replay", middlewares.RequireUser(), middlewares.RequireSuperAdmin(), outboxReplayHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

// setReadCommitted retries until the session isolation level is set. MySQL only.
func setReadCommitted(db *gorm.DB, logger *logrus.Logger) {
	if db.Dialector.Name() != "mysql" {
		return
	}
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			return
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}
}

// startOutboxWorker runs either the Pub/Sub dispatcher or, for single-instance
// deployments, the in-process processor.
func startOutboxWorker(ctx context.Context, db *gorm.DB, logger *logrus.Logger) {
	if config.OutboxDirectProcessing() {
		logger.WithFields(logrus.Fields{"field": "outbox"}).Info("OUTBOX_DIRECT_PROCESSING=true; processing ledger events in-process")
		go workflow.NewOutboxDirectProcessor(db, logger).Run(ctx)
		return
	}
	go workflow.NewOutboxDispatcher(db, logger).Run(ctx)
}

func main() {
	settings := config.GetSettings()
	port := settings.Server.Port
	if port == "" {
		port = defaultPort
	}
	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// listen before dependencies are up; the readiness gate answers 503 meanwhile
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: NewRouter(logger),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can lock tables; run it as a separate job in busy deployments
	if !config.SkipMigrations() {
		if err := models.Migrate(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}
	setReadCommitted(db, logger)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	startOutboxWorker(workerCtx, db, logger)

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// stop workers before draining so no new work starts
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that recorded gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"status": c.Writer.Status(),
			}).Error(c.Errors.String())
		}
	}
}
