package internal

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"triveni-inventory-api/internal/auth"
	"triveni-inventory-api/internal/config"
	"triveni-inventory-api/internal/handlers"
	"triveni-inventory-api/internal/models"
	"triveni-inventory-api/internal/store"
)

type Server struct {
	Store      store.Store
	Router     *chi.Mux
	JWTManager *auth.JWTManager
	Gate       *auth.Gate
	Metrics    *Metrics
	Logger     *zap.Logger

	gaugeCancel context.CancelFunc
	gaugeDone   chan struct{}
}

func NewServer(st store.Store, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiry)
	if err := jwtManager.ValidateConfig(); err != nil {
		return nil, err
	}

	gate, err := auth.NewGate(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Store:      st,
		Router:     chi.NewRouter(),
		JWTManager: jwtManager,
		Gate:       gate,
		Metrics:    NewMetrics(),
		Logger:     logger,
	}

	// Router-wide middleware must all be registered before the first
	// route; chi panics otherwise.
	s.Router.Use(RequestLogger(logger))
	if cfg.EnableMetrics {
		s.Router.Use(s.Metrics.Middleware())
	}

	// Mount public routes FIRST (no auth middleware)
	s.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	// Public auth routes (no JWT required)
	s.Router.Post("/auth/login", s.loginUser)

	if cfg.EnableMetrics {
		s.Router.Get("/metrics", s.Metrics.Handler().ServeHTTP)
	}

	// Create a protected route group with middleware
	s.Router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(s.JWTManager))
		s.mountProtectedRoutes(r)
	})

	s.startAssetGauge()

	return s, nil
}

// SeedSpares fills the spares collection with the built-in inventory if,
// and only if, it is currently empty. Later startups leave edits intact.
func (s *Server) SeedSpares(ctx context.Context) error {
	docs, err := s.Store.GetAll(ctx, store.CollectionSpares)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		return nil
	}

	seed := make(map[string]any)
	for key, item := range models.DefaultSpares() {
		seed[key] = item
	}
	if err := s.Store.ReplaceAll(ctx, store.CollectionSpares, seed); err != nil {
		return err
	}

	s.Logger.Info("seeded default spares", zap.Int("items", len(seed)))
	return nil
}

// startAssetGauge keeps the asset-set gauge in step with the collection by
// watching the same snapshot feed the live endpoints use.
func (s *Server) startAssetGauge() {
	ctx, cancel := context.WithCancel(context.Background())
	s.gaugeCancel = cancel
	s.gaugeDone = make(chan struct{})

	go func() {
		defer close(s.gaugeDone)

		sub, err := s.Store.Subscribe(ctx, store.CollectionAssets)
		if err != nil {
			s.Logger.Warn("asset gauge subscription failed", zap.Error(err))
			return
		}
		defer sub.Unsubscribe()

		for {
			select {
			case snap, ok := <-sub.C:
				if !ok {
					return
				}
				s.Metrics.SetAssetSetCount(len(snap.Docs))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Close shuts down the server's background work. The store itself is
// owned by the caller.
func (s *Server) Close(ctx context.Context) error {
	if s.gaugeCancel != nil {
		s.gaugeCancel()
		select {
		case <-s.gaugeDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// mountProtectedRoutes mounts all protected routes that require authentication
func (s *Server) mountProtectedRoutes(r chi.Router) {
	// Asset sets - require admin role for write operations
	r.Get("/assets", s.listAssetSets)
	r.Get("/assets/export", s.exportAssetSets)
	r.Get("/assets/stats", s.getStats)
	r.Get("/assets/{id}", s.getAssetSet)
	r.Post("/assets", auth.MustRole("admin")(http.HandlerFunc(s.createAssetSet)).(http.HandlerFunc))
	r.Put("/assets/{id}", auth.MustRole("admin")(http.HandlerFunc(s.updateAssetSet)).(http.HandlerFunc))
	r.Delete("/assets/{id}", auth.MustRole("admin")(http.HandlerFunc(s.deleteAssetSet)).(http.HandlerFunc))

	// Tag preview for the entry form
	r.Get("/tags", s.previewTags)

	// Spares - require admin role for write operations
	r.Get("/spares", s.listSpares)
	r.Get("/spares/export", s.exportSpares)
	r.Post("/spares", auth.MustRole("admin")(http.HandlerFunc(s.addSpare)).(http.HandlerFunc))
	r.Post("/spares/reset", auth.MustRole("admin")(http.HandlerFunc(s.resetSpares)).(http.HandlerFunc))
	r.Post("/spares/{key}/adjust", auth.MustRole("admin")(http.HandlerFunc(s.adjustSpare)).(http.HandlerFunc))
	r.Delete("/spares/{key}", auth.MustRole("admin")(http.HandlerFunc(s.deleteSpare)).(http.HandlerFunc))

	// Excel import - admin only
	importsHandler := handlers.NewImportsHandler(s.Store)
	r.Post("/imports/excel", auth.MustRole("admin")(http.HandlerFunc(importsHandler.UploadExcel)).(http.HandlerFunc))

	// Live snapshot feeds
	r.Get("/ws/assets", s.liveFeed(store.CollectionAssets))
	r.Get("/ws/spares", s.liveFeed(store.CollectionSpares))
}
