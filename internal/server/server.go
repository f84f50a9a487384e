package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"github.com/founderloop/compass/internal/config"
	"github.com/founderloop/compass/internal/handler"
	"github.com/founderloop/compass/internal/handler/memorystore"
	"github.com/founderloop/compass/internal/handler/project"
	"github.com/founderloop/compass/internal/handler/tasks"
	turnhandler "github.com/founderloop/compass/internal/handler/turn"
	"github.com/founderloop/compass/internal/logging"
	"github.com/founderloop/compass/internal/svc"
)

// ServerOptions holds optional dependencies for the server
type ServerOptions struct {
	SvcCtx *svc.ServiceContext // Pre-initialized service context (tests, embedding)
	Quiet  bool                // Suppress startup messages for clean CLI output
}

// Run starts the compass server with the given configuration.
// It blocks until the context is cancelled or an error occurs.
func Run(ctx context.Context, c config.Config, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return run(ctx, c, o)
}

func run(ctx context.Context, c config.Config, opts ServerOptions) error {
	serverPort := c.Port

	if err := checkPortAvailable(serverPort); err != nil {
		return fmt.Errorf("port %d is already in use: %w", serverPort, err)
	}

	var svcCtx *svc.ServiceContext
	if opts.SvcCtx != nil {
		svcCtx = opts.SvcCtx
	} else {
		var err error
		svcCtx, err = svc.NewServiceContext(c)
		if err != nil {
			return err
		}
		defer svcCtx.Close()
	}

	// Hot-reload guidance overrides while the server runs.
	if dir := c.GuidanceDir(); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			go func() {
				if err := svcCtx.Guidance.Watch(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
					logging.Warnf("Guidance watcher stopped: %v", err)
				}
			}()
		}
	}

	// Nightly retention sweep for old conversation messages.
	sweeper := cron.New()
	if c.RetentionDays > 0 {
		_, err := sweeper.AddFunc("0 3 * * *", func() {
			cutoff := time.Now().UTC().AddDate(0, 0, -c.RetentionDays)
			n, err := svcCtx.DB.PruneMessages(context.Background(), cutoff)
			if err != nil {
				logging.Errorf("Retention sweep failed: %v", err)
				return
			}
			if n > 0 {
				logging.Infof("Retention sweep pruned %d messages older than %d days", n, c.RetentionDays)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule retention sweep: %w", err)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", serverPort),
		Handler:      buildRouter(svcCtx, opts.Quiet),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if !opts.Quiet {
		fmt.Printf("Server ready at http://localhost:%d\n", serverPort)
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	if !opts.Quiet {
		fmt.Println("\nShutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpServer.Shutdown(shutdownCtx)
	return nil
}

func buildRouter(svcCtx *svc.ServiceContext, quiet bool) http.Handler {
	r := chi.NewRouter()

	if !quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware())

	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	r.Route("/api/v1", func(r chi.Router) {
		registerRoutes(r, svcCtx)
	})
	return r
}

func registerRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	// Project routes
	r.Post("/projects", project.CreateProjectHandler(svcCtx))
	r.Get("/projects", project.ListProjectsHandler(svcCtx))
	r.Get("/projects/{projectId}", project.GetProjectHandler(svcCtx))

	// Context assembly and turn recording
	r.Get("/projects/{projectId}/context", project.GetContextHandler(svcCtx))
	r.Post("/projects/{projectId}/messages", turnhandler.AppendMessageHandler(svcCtx))
	r.Post("/projects/{projectId}/turns", turnhandler.RecordTurnHandler(svcCtx))

	// Memory routes
	r.Get("/projects/{projectId}/memory", memorystore.GetMemoryHandler(svcCtx))
	r.Put("/projects/{projectId}/memory", memorystore.PutMemoryHandler(svcCtx))

	// Task routes
	r.Get("/projects/{projectId}/tasks", tasks.ListTasksHandler(svcCtx))
	r.Post("/projects/{projectId}/tasks", tasks.UpsertTaskHandler(svcCtx))
	r.Put("/projects/{projectId}/tasks/{taskId}/status", tasks.UpdateTaskStatusHandler(svcCtx))
	r.Post("/projects/{projectId}/tasks/{taskId}/complete", tasks.CompleteTaskHandler(svcCtx))
	r.Get("/projects/{projectId}/completed-tasks", tasks.CompletedTasksHandler(svcCtx))

	// Static guidance lookup
	r.Get("/guidance/{taskId}", tasks.TaskGuidanceHandler(svcCtx))
}

// corsMiddleware handles CORS — compass serves a local web app, so only
// localhost origins are allowed.
func corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || isLocalhostOrigin(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLocalhostOrigin(origin string) bool {
	return origin == "http://localhost" || origin == "http://127.0.0.1" ||
		strings.HasPrefix(origin, "http://localhost:") ||
		strings.HasPrefix(origin, "http://127.0.0.1:")
}

// checkPortAvailable checks if a port is available for binding
func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
