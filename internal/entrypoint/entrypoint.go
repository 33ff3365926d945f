package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/highlights-sync/internal/config"
	http_controllers "github.com/mrlokans/highlights-sync/internal/http"
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
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT; SIGKILL cannot be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Server Shutdown:", err)
	}

	// Stop the scheduler after the server so no new manual runs arrive
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting highlights-sync v%s", version)

	app, err := NewApp(cfg, AppOptions{})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer app.Close()

	if !app.Settings.HasToken() {
		log.Printf("WARNING: Readwise token is not set. Set 'READWISE_TOKEN' or configure it through PUT /api/settings before syncing.")
	}

	if err := app.CheckVault(); err != nil {
		log.Fatalf("Vault check failed: %v", err)
	}

	schedCtx, schedCancel := context.WithCancel(context.Background())
	sched := app.NewScheduler()
	if err := sched.Start(schedCtx); err != nil {
		log.Printf("WARNING: failed to start sync scheduler: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:  app.DB,
		Vault:     app.Vault,
		Settings:  app.Settings,
		Scheduler: sched,
		Engine:    app.Engine,
		Runs:      app.Runs,
		Validator: app.Client,
		Version:   version,
	})

	onShutdown := func(ctx context.Context) {
		schedCancel()
		sched.Stop()

		done := make(chan struct{})
		go func() {
			sched.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			log.Printf("Shutdown timeout reached with a sync run still active")
		}
	}

	Serve(router, cfg, onShutdown)
}
