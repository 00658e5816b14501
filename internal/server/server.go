package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tasktrack/apiserver/config"
	"github.com/tasktrack/apiserver/internal/db"
	"github.com/tasktrack/apiserver/internal/handlers"
	"github.com/tasktrack/apiserver/internal/mq"
	"github.com/tasktrack/apiserver/internal/services"
	"github.com/tasktrack/apiserver/internal/storage"
	"github.com/tasktrack/apiserver/internal/store"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	closers    []func() error
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	Users  *services.UserService
	Tasks  *services.TaskService
	Tokens *services.TokenService
	Health handlers.Pinger
	Logger *slog.Logger

	// Assets serves the client build under /app when set.
	Assets       handlers.AssetStore
	ClientPrefix string

	CORSOrigins []string
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// New constructs a Server from cfg, connecting to the configured store and
// optional event broker and client bucket.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	srv := &Server{logger: logger}

	repos, err := srv.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var events services.EventPublisher
	if cfg.Events.Backend != "" {
		queue, err := mq.Open(ctx, cfg.Events)
		if err != nil {
			srv.closeAll()
			return nil, fmt.Errorf("open events backend: %w", err)
		}
		srv.closers = append(srv.closers, queue.Close)
		events = mq.NewTaskPublisher(queue, cfg.Events.Channel, logger)
	}

	deps := Dependencies{
		Users:        services.NewUserService(repos.users, cfg.Auth.BcryptCost),
		Tasks:        services.NewTaskService(repos.tasks, events),
		Tokens:       services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Health:       repos.health,
		Logger:       logger,
		ClientPrefix: cfg.Client.Prefix,
		CORSOrigins:  cfg.CORS.AllowedOrigins,
	}
	if cfg.Client.Backend != "" {
		assets, err := storage.Open(ctx, cfg.Client)
		if err != nil {
			srv.closeAll()
			return nil, fmt.Errorf("open client storage: %w", err)
		}
		srv.closers = append(srv.closers, assets.Close)
		deps.Assets = assets
	}

	srv.router = NewRouter(deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

// NewRouter builds the HTTP routes and middleware.
func NewRouter(deps Dependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
			NoColor: true,
		}),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	// Set before any Route call so mounted subrouters inherit them.
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	authMiddleware := handlers.RequireAuth(deps.Tokens)

	router.Get("/healthz", handlers.Healthz(deps.Health))
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, deps.Users, deps.Tokens, logger)
	})
	router.Route("/tasks", func(r chi.Router) {
		handlers.TaskRouter(r, deps.Tasks, authMiddleware, logger)
	})
	if deps.Assets != nil {
		router.Route("/app", func(r chi.Router) {
			handlers.ClientRouter(r, deps.Assets, deps.ClientPrefix, logger)
		})
	}

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests and
// releases store and broker connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeAll()
	return err
}

type repositories struct {
	users  services.UserRepository
	tasks  services.TaskRepository
	health handlers.Pinger
}

func (s *Server) openStore(ctx context.Context, cfg config.Config) (repositories, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return repositories{}, err
		}
		s.closers = append(s.closers, conn.Close)
		users := store.NewUserRepository(conn)
		return repositories{users: users, tasks: store.NewTaskRepository(conn), health: users}, nil

	case config.StoreMongo:
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return repositories{}, err
		}
		s.closers = append(s.closers, func() error {
			return client.Disconnect(context.Background())
		})
		if err := store.EnsureMongoIndexes(ctx, database); err != nil {
			s.closeAll()
			return repositories{}, err
		}
		users := store.NewMongoUserRepository(database)
		return repositories{users: users, tasks: store.NewMongoTaskRepository(database), health: users}, nil

	case config.StoreMemory:
		s.logger.Warn("using in-memory store; data is lost on restart")
		users := store.NewMemoryUserRepository()
		return repositories{users: users, tasks: store.NewMemoryTaskRepository(), health: users}, nil

	default:
		return repositories{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (s *Server) closeAll() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close resource", slog.Any("error", err))
		}
	}
	s.closers = nil
}
