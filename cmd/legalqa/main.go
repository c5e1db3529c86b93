package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/legalqa/internal/ai"
	"github.com/xxxsen/legalqa/internal/config"
	"github.com/xxxsen/legalqa/internal/db"
	"github.com/xxxsen/legalqa/internal/embedcache"
	"github.com/xxxsen/legalqa/internal/filestore"
	"github.com/xxxsen/legalqa/internal/handler"
	"github.com/xxxsen/legalqa/internal/job"
	"github.com/xxxsen/legalqa/internal/middleware"
	"github.com/xxxsen/legalqa/internal/parser"
	"github.com/xxxsen/legalqa/internal/repo"
	"github.com/xxxsen/legalqa/internal/schedule"
	"github.com/xxxsen/legalqa/internal/service"
	"github.com/xxxsen/legalqa/internal/session"
	"github.com/xxxsen/legalqa/internal/splitter"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "legalqa",
		Short: "legal document question answering backend",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env is fine, the real environment still applies
			_ = godotenv.Load()
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			conn, err := db.Open(cfg.DSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			return runServer(cfg, conn)
		},
	}

	initCmd := &cobra.Command{
		Use:   "initdb",
		Short: "create the vector extension and chunk table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := db.Open(cfg.DSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(cmd.Context(), conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			logutil.GetLogger(cmd.Context()).Info("database initialized")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd, initCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	log := logutil.GetLogger(context.Background())
	log.Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("archive", cfg.Archive.Type),
	)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(provider, cfg.AI.Model, *cfg.AI.Temperature)
	embedder := embedcache.WrapLruCacheToEmbedder(
		ai.NewEmbedder(provider, cfg.AI.EmbedModel, cfg.AI.EmbeddingDimension),
		cfg.EmbedCache.Size,
		time.Duration(cfg.EmbedCache.TTLMinutes)*time.Minute,
	)
	manager := ai.NewManager(generator, embedder, ai.ManagerConfig{Timeout: cfg.AI.Timeout})

	split, err := buildSplitter(cfg.Splitter)
	if err != nil {
		return fmt.Errorf("init splitter: %w", err)
	}
	archive, err := filestore.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}

	chunks := repo.NewChunkRepo(conn, cfg.AI.EmbeddingDimension)
	documents := service.NewDocumentService(chunks, parser.NewPDFParser(), split, manager, service.DocumentServiceConfig{
		TempDir:     cfg.TempDir,
		SummaryTopK: cfg.Retrieval.SummaryTopK,
		QueryTopK:   cfg.Retrieval.QueryTopK,
	}, service.WithArchive(archive))

	secret := cfg.Session.Secret
	if secret == "" {
		secret = randomSecret()
		log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	sessions := session.NewCookieStore(session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secret: []byte(secret),
		TTL:    time.Duration(cfg.Session.TTLHours) * time.Hour,
		Secure: cfg.Session.Secure,
	})

	page, err := handler.NewPageHandler(cfg.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("init page: %w", err)
	}
	deps := handler.RouterDeps{
		Page:           page,
		Documents:      handler.NewDocumentHandler(documents, sessions, cfg.DefaultUserID, cfg.MaxUploadSize),
		UploadInterval: time.Duration(cfg.UploadInterval) * time.Second,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Retention.MaxAgeDays > 0 {
		scheduler := schedule.NewCronScheduler()
		retention := job.NewChunkRetentionJob(documents, time.Duration(cfg.Retention.MaxAgeDays)*24*time.Hour, cfg.Retention.BatchSize)
		if err := scheduler.AddJob(retention, cfg.Retention.Spec); err != nil {
			return fmt.Errorf("schedule retention: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	log.Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	return nil
}

func buildSplitter(cfg config.SplitterConfig) (*splitter.RecursiveSplitter, error) {
	var opts []splitter.Option
	if cfg.LengthUnit == "token" {
		length, err := splitter.NewTokenLength("cl100k_base")
		if err != nil {
			return nil, err
		}
		opts = append(opts, splitter.WithLength(length))
	}
	return splitter.New(cfg.ChunkSize, *cfg.ChunkOverlap, opts...)
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
