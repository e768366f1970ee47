package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"clouddrive/internal/auth"
	"clouddrive/internal/config"
	"clouddrive/internal/handler"
	"clouddrive/internal/metrics"
	"clouddrive/internal/preview"
	"clouddrive/internal/repository"
	"clouddrive/internal/service"
	"clouddrive/internal/service/s3"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration, log *slog.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error

	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		log.Warn("failed to connect to database", "attempt", i+1, "max_attempts", maxAttempts, "error", err)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxAttempts, err)
}

func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.NewConfig(".app.env")
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := connectWithRetry(cfg.Database.DSN(), 5, 5*time.Second, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := runMigrations(cfg.Database.URL()); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	storage, err := s3.NewClient(s3.Config{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Bucket:          cfg.S3.Bucket,
	})
	if err != nil {
		log.Error("failed to create S3 client", "error", err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := storage.EnsureBucket(startupCtx); err != nil {
		cancelStartup()
		log.Error("failed to ensure bucket", "error", err)
		os.Exit(1)
	}
	cancelStartup()

	fileRepo := repository.NewFileRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := auth.NewService(
		userRepo,
		[]byte(cfg.Auth.Secret),
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		log,
	)
	folderService := service.NewFolderService(folderRepo, fileRepo, storage, log)
	fileService := service.NewFileService(fileRepo, folderRepo, storage, cfg.Upload.MaxFileSize, log)
	previewService := preview.NewService(storage, log)

	authHandler := handler.NewAuthHandler(authService, log)
	folderHandler := handler.NewFolderHandler(folderService, log)
	fileHandler := handler.NewFileHandler(fileService, cfg.Upload.MaxFileSize, log)
	previewHandler := preview.NewHandler(previewService, fileService, log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Minute))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authService.Middleware)

			r.Post("/files", fileHandler.UploadFile)
			r.Get("/files", fileHandler.ListFiles)
			r.Route("/files/{id}", func(r chi.Router) {
				r.Get("/", fileHandler.GetFile)
				r.Get("/download", fileHandler.DownloadFile)
				r.Get("/preview", previewHandler.GetPreview)
				r.Put("/rename", fileHandler.RenameFile)
				r.Patch("/move", fileHandler.MoveFile)
				r.Post("/copy", fileHandler.CopyFile)
				r.Delete("/", fileHandler.DeleteFile)
			})

			r.Post("/folders", folderHandler.CreateFolder)
			r.Get("/folders", folderHandler.ListFolders)
			r.Route("/folders/{id}", func(r chi.Router) {
				r.Get("/", folderHandler.GetFolder)
				r.Get("/content", folderHandler.GetFolderContent)
				r.Patch("/move", folderHandler.MoveFolder)
				r.Post("/copy", folderHandler.CopyFolder)
				r.Delete("/", folderHandler.DeleteFolder)
			})
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", "error", err)
	}

	if err := db.Close(); err != nil {
		log.Error("error closing database connection", "error", err)
	}

	log.Info("server exited properly")
}
