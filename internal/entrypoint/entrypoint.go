package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookreader/internal/auth"
	"github.com/mrlokans/bookreader/internal/config"
	"github.com/mrlokans/bookreader/internal/database"
	"github.com/mrlokans/bookreader/internal/database/books"
	"github.com/mrlokans/bookreader/internal/database/favourites"
	"github.com/mrlokans/bookreader/internal/database/progress"
	"github.com/mrlokans/bookreader/internal/database/users"
	http_controllers "github.com/mrlokans/bookreader/internal/http"
	"github.com/mrlokans/bookreader/internal/logging"
	"github.com/mrlokans/bookreader/internal/scheduler"
	"github.com/mrlokans/bookreader/internal/sessions"
	"github.com/mrlokans/bookreader/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop taking requests before the sessions behind them are flushed.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logWriter, logCloser := logging.Setup(cfg.Logging)
	defer logCloser.Close()
	gin.DefaultWriter = logWriter
	gin.DefaultErrorWriter = logWriter

	log.Printf("Starting Book Reader v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)
	favouriteRepo := favourites.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewPersistProgressQueue(progressRepo),
			tasks.NewPruneProgressQueue(progressRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	sessionCfg := sessions.DefaultConfig()
	sessionCfg.PageSize = cfg.Reader.PageSize
	sessionCfg.SaveWindow = cfg.Reader.SaveDebounce
	sessionCfg.ScrollGate = cfg.Reader.ScrollGate
	sessionCfg.CacheSize = cfg.Sessions.CacheSize
	if cfg.Reader.SaveAttempts > 0 {
		sessionCfg.SaveAttempts = uint(cfg.Reader.SaveAttempts)
	}

	var sessionOpts []sessions.Option
	var pruneQueue scheduler.TaskQueue
	if taskClient != nil {
		sessionOpts = append(sessionOpts, sessions.WithTaskQueue(taskClient))
		pruneQueue = taskClient
	}
	manager, err := sessions.NewManager(bookRepo, progressRepo, sessionCfg, sessionOpts...)
	if err != nil {
		log.Fatalf("Failed to initialize reading sessions: %v", err)
	}

	maintenance := scheduler.NewMaintenanceScheduler(manager, pruneQueue, scheduler.Config{
		SweepSchedule: cfg.Sessions.SweepSchedule,
		IdleTimeout:   cfg.Sessions.IdleTimeout,
		PruneSchedule: cfg.Sessions.PruneSchedule,
	})
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	if err := maintenance.Start(schedCtx); err != nil {
		log.Fatalf("Failed to start maintenance scheduler: %v", err)
	}
	if next := maintenance.NextSweep(); next != nil && !next.IsZero() {
		log.Printf("[SCHEDULER] First idle-session sweep at %s", next.Format(time.RFC3339))
	}

	var authMiddleware *auth.Middleware
	if cfg.Auth.Mode == config.AuthModeToken {
		log.Printf("Authentication mode: token (Authorization: Bearer <token>)")
		authMiddleware = auth.NewMiddleware(userRepo, cfg.Auth)
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Books:          bookRepo,
		Progress:       progressRepo,
		Favourites:     favouriteRepo,
		Sessions:       manager,
		AuthMiddleware: authMiddleware,
		Version:        version,
	}
	if taskClient != nil {
		routerCfg.TaskStatus = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		maintenance.Stop()
		if err := manager.CloseAll(ctx); err != nil {
			log.Printf("Error flushing reading sessions: %v", err)
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
