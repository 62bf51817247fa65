package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jordannanyan/plagiarism-backend/auth"
	"github.com/jordannanyan/plagiarism-backend/checker"
	"github.com/jordannanyan/plagiarism-backend/dbutil"
	"github.com/jordannanyan/plagiarism-backend/env"
	"github.com/jordannanyan/plagiarism-backend/handlers"
	"github.com/jordannanyan/plagiarism-backend/health"
	"github.com/jordannanyan/plagiarism-backend/httpx"
	"github.com/jordannanyan/plagiarism-backend/redisutil"
	"github.com/jordannanyan/plagiarism-backend/store"
)

var (
	logger    *zap.Logger
	dbManager *dbutil.ConnectionManager
	rdb       *redis.Client
	jwtSecret []byte
	ctx       = context.Background()
)

func performHealthCheck() {
	port := env.Get("PORT", "8080")
	healthURL := fmt.Sprintf("http://localhost:%s/health", port)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(healthURL)
	if err != nil {
		fmt.Printf("Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Health check failed with status: %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}

func initJWTSecret() error {
	secretEnv := env.Get("JWT_SECRET", "")
	if secretEnv != "" {
		jwtSecret = []byte(secretEnv)
		logger.Info("JWT secret loaded from environment")
		return nil
	}
	// Generate random secret for development
	jwtSecret = make([]byte, 32)
	if _, err := rand.Read(jwtSecret); err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	logger.Info("Generated random JWT secret for development")
	return nil
}

func main() {
	// Handle health check flag for Docker health checks
	healthCheck := flag.Bool("health-check", false, "Perform health check and exit")
	flag.Parse()

	if *healthCheck {
		performHealthCheck()
		return
	}

	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting plagiarism backend")

	if err := initJWTSecret(); err != nil {
		logger.Fatal("Failed to load JWT secret", zap.Error(err))
	}

	connectDB()
	defer dbManager.Close()

	connectRedis()

	texts, err := store.NewTextFiles(env.Get("DATA_DIR", "./data"), logger)
	if err != nil {
		logger.Fatal("Failed to initialize text storage", zap.Error(err))
	}

	// Stores
	paramsStore := store.NewParamsStore(logger, dbManager)
	documentStore := store.NewDocumentStore(logger, dbManager)
	corpusStore := store.NewCorpusStore(logger, dbManager)
	checkStore := store.NewCheckStore(logger, dbManager)
	resultStore := store.NewResultStore(logger, dbManager)
	verificationStore := store.NewVerificationStore(logger, dbManager)
	auditStore := store.NewAuditStore(logger, dbManager)

	authHandler := handlers.NewAuthHandler(logger, dbManager, jwtSecret)

	// Create database tables
	authHandler.CreateTables()
	paramsStore.CreateTables()
	documentStore.CreateTables()
	corpusStore.CreateTables()
	checkStore.CreateTables()
	resultStore.CreateTables()
	verificationStore.CreateTables()
	auditStore.CreateTables()
	paramsStore.PrepareStatements()

	sigCache := checker.NewRedisSignatureCache(rdb, logger,
		time.Duration(env.GetInt("SIGNATURE_CACHE_TTL_HOURS", 24))*time.Hour)

	chk := &checker.Checker{
		Params:    paramsStore,
		Documents: documentStore,
		Corpus:    corpusStore,
		Texts:     texts,
		Cache:     sigCache,
		Requests:  checkStore,
		Results:   resultStore,
		Audit:     auditStore,
		Logger:    logger,
		Deadline:  time.Duration(env.GetInt("CHECK_DEADLINE_SECONDS", 60)) * time.Second,
	}

	documentsHandler := handlers.NewDocumentsHandler(logger, documentStore, texts)
	corpusHandler := handlers.NewCorpusHandler(logger, corpusStore, texts, sigCache)
	paramsHandler := handlers.NewParamsHandler(logger, paramsStore)
	checksHandler := handlers.NewChecksHandler(logger, chk, checkStore, resultStore,
		documentStore, verificationStore, texts)
	verificationHandler := handlers.NewVerificationHandler(logger, checkStore, resultStore,
		verificationStore, auditStore)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))
	r.Use(httpx.RecoveryMiddleware(logger))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, specify your frontend domain
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health and metrics endpoints (no auth required)
	r.Get("/health", health.HealthHandler())
	r.Get("/ready", health.ReadyHandler(func(ctx context.Context) error {
		if err := dbManager.GetDB().PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		return nil
	}))
	r.Handle("/metrics", promhttp.Handler())

	// Public auth endpoints
	r.Route("/api/auth", func(authRouter chi.Router) {
		authRouter.Post("/register", authHandler.Register)
		authRouter.Post("/login", authHandler.Login)

		authRouter.Group(func(protected chi.Router) {
			protected.Use(auth.RequireAuth(jwtSecret, logger))
			protected.Get("/me", authHandler.Me)
		})
	})

	// Protected API endpoints (require authentication)
	r.Route("/api", func(apiRouter chi.Router) {
		apiRouter.Use(auth.RequireAuth(jwtSecret, logger))

		apiRouter.Route("/documents", func(documentsRouter chi.Router) {
			documentsRouter.Get("/", documentsHandler.List)
			documentsRouter.Post("/", documentsHandler.Create)
			documentsRouter.Get("/{id}", documentsHandler.Get)
		})

		apiRouter.Route("/checks", func(checksRouter chi.Router) {
			checksRouter.Post("/", checksHandler.Create)
			checksRouter.Get("/{id}", checksHandler.Get)

			checksRouter.Group(func(verifiers chi.Router) {
				verifiers.Use(auth.RequireRole(jwtSecret,
					[]string{auth.RoleDosen, auth.RoleAdmin}, logger))
				verifiers.Put("/{id}/verification", verificationHandler.Put)
			})
		})

		// Corpus and parameter management (admin only)
		apiRouter.Group(func(admin chi.Router) {
			admin.Use(auth.RequireRole(jwtSecret, []string{auth.RoleAdmin}, logger))

			admin.Route("/corpus", func(corpusRouter chi.Router) {
				corpusRouter.Get("/", corpusHandler.List)
				corpusRouter.Post("/", corpusHandler.Create)
				corpusRouter.Patch("/{id}/active", corpusHandler.SetActive)
			})

			admin.Route("/params", func(paramsRouter chi.Router) {
				paramsRouter.Get("/", paramsHandler.List)
				paramsRouter.Post("/", paramsHandler.Activate)
			})
		})
	})

	port := env.Get("PORT", "8080")

	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	logger.Info("Plagiarism backend starting", zap.String("port", port))

	httpx.StartServerWithGracefulShutdown(server, logger, 30*time.Second)
}

func connectDB() {
	databaseURL := env.Get("DATABASE_URL", "")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	dbManager = dbutil.ConnectManagerWithRetry(logger, databaseURL, 5, 2*time.Second)
	logger.Info("Database connected successfully")
}

func connectRedis() {
	redisURL := env.Get("REDIS_URL", "")
	if redisURL == "" {
		logger.Fatal("REDIS_URL not set")
	}
	rdb = redisutil.ConnectWithRetry(ctx, logger, redisURL, 5, 2*time.Second)
	logger.Info("Redis connected successfully")
}
