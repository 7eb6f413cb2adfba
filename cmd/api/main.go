//	@title			PetPics API
//	@version		1.0
//	@description	Pet photo gallery with asynchronous thumbnail generation.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/petpics/service/internal/auth"
	"github.com/petpics/service/internal/config"
	"github.com/petpics/service/internal/db"
	"github.com/petpics/service/internal/image"
	appMiddleware "github.com/petpics/service/internal/middleware"
	"github.com/petpics/service/internal/signer"
	"github.com/petpics/service/internal/storage"
	"github.com/petpics/service/internal/user"

	_ "github.com/petpics/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.NewMinioStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	// Fail fast when the store is unreachable; ingest re-checks per upload.
	// The thumbnails bucket is ensured here too so a gallery probe on a
	// fresh deployment reads absence, not a missing bucket.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	for _, bucket := range []string{cfg.OriginalsBucket, cfg.ThumbnailsBucket} {
		if err := store.EnsureBucket(startupCtx, bucket); err != nil {
			log.Fatalf("bucket check failed: %v", err)
		}
	}
	cancelStartup()

	// Without a secret key every issued URL degrades to the unsigned
	// canonical form instead of failing reads. The same canonical base
	// backs the fallback when a presign call fails at runtime.
	signingClient := store.Client()
	if cfg.StorageSecretKey == "" {
		log.Println("no storage secret configured, serving unsigned URLs")
		signingClient = nil
	}
	urlSigner := signer.NewPresignSigner(signingClient, store.BaseURL())

	// Wire dependencies: repository → service → handler
	userRepo := user.NewRepository(pool)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(userSvc, cfg)
	authHandler := auth.NewHandler(authSvc)

	imageRepo := image.NewRepository(pool)
	imageSvc := image.NewService(imageRepo, store, urlSigner, image.Options{
		OriginalsBucket:   cfg.OriginalsBucket,
		ThumbnailsBucket:  cfg.ThumbnailsBucket,
		SignedURLTTL:      cfg.SignedURLTTL,
		AllowedExtensions: cfg.AllowedExtensions,
	})
	imageHandler := image.NewHandler(imageSvc, cfg.MaxUploadBytes)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Anonymous gallery view
		r.Get("/gallery", imageHandler.Gallery)

		// Protected user endpoints
		r.Route("/users", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Get("/me", userHandler.GetMe)
		})

		// Protected image endpoints
		r.Route("/images", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/", imageHandler.Upload)
			r.Delete("/{id}", imageHandler.Delete)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
