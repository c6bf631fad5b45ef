package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"

	apiconfig "financial_report/pkg/api/config"
	"financial_report/pkg/api/report"
	"financial_report/pkg/config"
	"financial_report/pkg/core/agent"
	"financial_report/pkg/core/extract"
	"financial_report/pkg/core/llm"
	"financial_report/pkg/core/pipeline"
	"financial_report/pkg/core/prompt"
	"financial_report/pkg/core/store"
	"financial_report/pkg/core/transform"
	"financial_report/pkg/logger"
)

func main() {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		logger.L.Fatal().Err(err).Msg("[CONFIG] Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Prompt library: resources dir next to the working dir, else next to the binary
	resourcesPath := cfg.PromptsDir
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), cfg.PromptsDir)
	}
	if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
		logger.L.Warn().Err(err).Msg("[PROMPT] Prompt files not fully applied, built-ins kept for the rest")
	}

	agentMgr := newAgentManager(cfg)
	if len(agentMgr.Available()) == 0 {
		logger.L.Warn().Msg("[AGENT] No LLM API key configured; /process endpoints will fail")
	}

	ctx := context.Background()
	vault := newVault(ctx, cfg)
	defer store.Close()

	orch := pipeline.NewOrchestrator(
		extract.NewClient(cfg.TensorlakeAPIKey, cfg.TensorlakeBaseURL),
		transform.New(agentMgr, prompt.Get()),
	)
	orch.MaxParallel = cfg.MaxParallel
	orch.SetStore(vault)
	if cfg.ArchiveBucket != "" {
		archive, err := store.NewS3Archive(ctx, store.ArchiveConfig{
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.AWSRegion,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
		if err != nil {
			logger.L.Warn().Err(err).Msg("[ARCHIVE] Disabled")
		} else {
			orch.SetArchive(archive)
		}
	}

	scheduler := startPurge(cfg, vault)
	defer scheduler.Stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(report.CORS(cfg.CORSAllowOrigins))
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	reportHandler := report.NewHandler(orch, vault, cfg.MaxUploadBytes())
	reportHandler.RegisterPublic(router)
	authed := router.Group("/", report.BearerAuth(cfg.AppToken))
	reportHandler.RegisterRoutes(authed)
	apiconfig.NewHandler(agentMgr).RegisterRoutes(authed)

	srv := &http.Server{Addr: cfg.Addr(), Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.L.Info().Str("addr", srv.Addr).Bool("auth", cfg.AppToken != "").Msg("[API] Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L.Fatal().Err(err).Msg("[API] Server failed to start")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error().Err(err).Msg("[API] Shutdown failed")
	}
	logger.L.Info().Msg("[API] Server stopped")
}

// newAgentManager registers a provider for every configured key and routes
// agents per config/models.yaml.
func newAgentManager(cfg *config.Config) *agent.Manager {
	var agentCfg agent.Config
	if data, err := os.ReadFile("config/models.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &agentCfg); err != nil {
			logger.L.Warn().Err(err).Msg("[AGENT] Ignoring invalid config/models.yaml")
		}
	}
	agentCfg.ActiveProvider = cfg.LLMProvider

	providers := map[string]llm.Provider{}
	if cfg.AnthropicAPIKey != "" {
		p, _ := llm.New("anthropic", cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxTokens)
		providers["anthropic"] = p
	}
	if cfg.GeminiAPIKey != "" {
		p, _ := llm.New("gemini", cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens)
		providers["gemini"] = p
	}
	return agent.NewManager(agentCfg, providers)
}

// newVault layers the in-process cache, Postgres when configured and the
// file cache.
func newVault(ctx context.Context, cfg *config.Config) *store.Vault {
	vault := &store.Vault{Memory: store.NewMemoryCache(time.Hour)}

	if cfg.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
			logger.L.Warn().Err(err).Msg("[STORE] Postgres unavailable, using file cache only")
		} else {
			vault.DB = store.NewReportRepo(store.GetPool())
		}
	}

	files, err := store.NewFileCache(cfg.ReportCacheDir, cfg.CacheTTL)
	if err != nil {
		logger.L.Warn().Err(err).Msg("[STORE] File cache disabled")
	} else {
		vault.Files = files
	}
	return vault
}

// startPurge schedules removal of expired file cache entries, and of database
// rows past the retention period when one is set.
func startPurge(cfg *config.Config, vault *store.Vault) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc(cfg.PurgeSchedule, func() {
		if vault.Files != nil {
			n, err := vault.Files.Purge(time.Now())
			if err != nil {
				logger.L.Warn().Err(err).Msg("[STORE] File cache purge failed")
			} else if n > 0 {
				logger.L.Info().Int("removed", n).Msg("[STORE] File cache purged")
			}
		}
		if repo, ok := vault.DB.(*store.ReportRepo); ok && cfg.Retention > 0 {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := repo.Purge(ctx, time.Now().Add(-cfg.Retention))
			if err != nil {
				logger.L.Warn().Err(err).Msg("[STORE] Report purge failed")
			} else if n > 0 {
				logger.L.Info().Int64("removed", n).Msg("[STORE] Reports purged")
			}
		}
	})
	if err != nil {
		logger.L.Warn().Err(err).Str("schedule", cfg.PurgeSchedule).Msg("[STORE] Purge schedule invalid, purge disabled")
	}
	c.Start()
	return c
}
