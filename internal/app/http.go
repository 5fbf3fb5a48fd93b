package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"agent-api/internal/config"
	v1 "agent-api/internal/delivery/http/v1"
	"agent-api/internal/gmailx"
	"agent-api/internal/repository/postgres"
	"agent-api/internal/services"
)

func MustListenAndServeHTTP(logger zerolog.Logger, cfg *config.Config, pgPool *pgxpool.Pool) {
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(logger, cfg, pgPool, router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	logger.Info().Msg("shut down http server")
}

func registerRoutes(logger zerolog.Logger, cfg *config.Config, pgPool *pgxpool.Pool, router gin.IRouter) {
	jwtCfg := cfg.JWT
	signingKey := []byte(jwtCfg.SigningKey)

	authService := services.NewAuthService(
		logger,
		pgPool,
		jwtCfg.Issuer,
		signingKey,
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(logger, pgPool)

	emailAuthStore := postgres.NewEmailAuthStore(logger, pgPool)
	profileStore := postgres.NewProfileStore(logger, pgPool)
	billStore := postgres.NewBillStore(logger, pgPool)

	oauthConfig := gmailx.NewOAuthConfig(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.HTTP.PublicBaseURL+"/email-auth-callback",
	)
	tokenService := services.NewTokenService(
		logger,
		gmailx.NewOAuthClient(oauthConfig),
		emailAuthStore,
		profileStore,
		jwtCfg.Issuer,
		signingKey,
	)
	scanService := services.NewScanService(
		logger,
		tokenService,
		gmailx.NewFetcher(logger),
		billStore,
		profileStore,
		cfg.Scan.DaysBack,
		cfg.Scan.MaxResults,
	)

	handler := v1.New(
		logger,
		pgPool,
		authService,
		sessionService,
		scanService,
		tokenService,
		cfg.HTTP.PublicBaseURL,
	)

	// The email endpoints keep the paths the dashboard frontend calls.
	// The OAuth callback is the only one the provider reaches without a
	// bearer token.
	router.POST("/scan-emails", handler.HandleAuthMiddleware, handler.HandleScanEmails)
	router.GET("/email-auth", handler.HandleAuthMiddleware, handler.HandleEmailAuth)
	router.GET("/email-auth-callback", handler.HandleEmailAuthCallback)
	router.POST("/check-gmail-connection", handler.HandleAuthMiddleware, handler.HandleCheckGmailConnection)

	api := router.Group("/api/v1")

	authRouter := api.Group("/auth")
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/refresh", handler.HandleRefresh)
	authRouter.POST("/register", handler.HandleRegister)
	authRouter.POST("/logout", handler.HandleAuthMiddleware, handler.HandleLogout)

	tasksRouter := api.Group("/tasks", handler.HandleAuthMiddleware)
	tasksRouter.POST("", handler.HandleCreateTask)
	tasksRouter.GET("", handler.HandleGetTasks)
	tasksRouter.PUT("/:id", handler.HandleUpdateTask)
	tasksRouter.PATCH("/:id/complete", handler.HandleCompleteTask)
	tasksRouter.DELETE("/:id", handler.HandleDeleteTask)

	notesRouter := api.Group("/notes", handler.HandleAuthMiddleware)
	notesRouter.POST("", handler.HandleCreateNote)
	notesRouter.GET("", handler.HandleGetNotes)
	notesRouter.PUT("/:id", handler.HandleUpdateNote)
	notesRouter.PATCH("/:id/pin", handler.HandlePinNote)
	notesRouter.PATCH("/:id/archive", handler.HandleArchiveNote)
	notesRouter.DELETE("/:id", handler.HandleDeleteNote)

	paymentsRouter := api.Group("/payments", handler.HandleAuthMiddleware)
	paymentsRouter.POST("", handler.HandleCreatePayment)
	paymentsRouter.GET("", handler.HandleGetPayments)
	paymentsRouter.PUT("/:id", handler.HandleUpdatePayment)
	paymentsRouter.PATCH("/:id/paid", handler.HandleMarkPaymentPaid)
	paymentsRouter.DELETE("/:id", handler.HandleDeletePayment)

	goalsRouter := api.Group("/goals", handler.HandleAuthMiddleware)
	goalsRouter.POST("", handler.HandleCreateGoal)
	goalsRouter.GET("", handler.HandleGetGoals)
	goalsRouter.PUT("/:id", handler.HandleUpdateGoal)
	goalsRouter.DELETE("/:id", handler.HandleDeleteGoal)

	billsRouter := api.Group("/bills", handler.HandleAuthMiddleware)
	billsRouter.GET("", handler.HandleGetBills)
	billsRouter.POST("/:id/approve", handler.HandleApproveBill)
	billsRouter.DELETE("/:id", handler.HandleDismissBill)
}
