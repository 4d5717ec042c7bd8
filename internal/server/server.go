package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/config"
	"github.com/toteco/apiserver/internal/db"
	"github.com/toteco/apiserver/internal/handlers"
	"github.com/toteco/apiserver/internal/logging"
	"github.com/toteco/apiserver/internal/metrics"
	"github.com/toteco/apiserver/internal/mq"
	"github.com/toteco/apiserver/internal/notify"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/storage"
	"github.com/toteco/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sqlx.DB
	queue      *mq.MQ
	logger     logrus.FieldLogger
}

// New connects to the database and the optional storage and broker
// backends, then wires every route under cfg.BasePath.
func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	photos, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	var notifier services.RecoveryNotifier
	if queue != nil {
		notifier = notify.NewPublisher(queue, cfg.MQ.NotifyChannel)
	} else {
		logger.Warn("no message queue configured, recovery codes will not be mailed")
	}
	if photos == nil {
		logger.Warn("no object storage configured, photo uploads are disabled")
	}

	st := store.New(dbConn)
	m := metrics.New()

	authService := services.NewAuthService(st.Users, cfg.JWTSecret, cfg.TokenTTL, logger)
	userService := services.NewUserService(st.Users, notifier, logger)
	establishmentService := services.NewEstablishmentService(st.Establishments, logger)
	menuService := services.NewMenuService(st.Menus, logger)
	productService := services.NewProductService(st.Products, st.Menus, st.Publications, logger)
	publicationService := services.NewPublicationService(st, st.Publications, st.Products, logger)
	photoService := services.NewPhotoService(photos, logger)

	authMiddleware := handlers.RequireAuth(authService, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(logger),
		middleware.Recoverer,
		m.Instrument,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz(st))
	router.Method(http.MethodGet, "/metrics", m.Handler())
	router.Route(cfg.BasePath, func(r chi.Router) {
		handlers.AuthRouter(r, authService, m, logger)
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService, authMiddleware, logger)
		})
		r.Route("/establishments", func(r chi.Router) {
			handlers.EstablishmentRouter(r, establishmentService, authMiddleware, logger)
		})
		r.Route("/menus", func(r chi.Router) {
			handlers.MenuRouter(r, menuService, authMiddleware, logger)
		})
		r.Route("/products", func(r chi.Router) {
			handlers.ProductRouter(r, productService, authMiddleware, logger)
		})
		r.Route("/publications", func(r chi.Router) {
			handlers.PublicationRouter(r, publicationService, m, authMiddleware, logger)
		})
		r.Route("/photos", func(r chi.Router) {
			handlers.PhotoRouter(r, photoService, authMiddleware, logger)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}, nil
}

// Router exposes the chi router, for serving through httptest.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker and the
// database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if qerr := s.queue.Close(); qerr != nil {
			s.logger.WithError(qerr).Warn("failed to close message queue")
		}
	}
	if s.db != nil {
		if derr := s.db.Close(); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}
