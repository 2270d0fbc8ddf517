// Package server wires storage, services and HTTP routes into the
// geo-widget HTTP server.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/geo-widget/internal/api"
	"github.com/joeblew999/geo-widget/internal/api/editor"
	"github.com/joeblew999/geo-widget/internal/config"
	"github.com/joeblew999/geo-widget/internal/db"
	"github.com/joeblew999/geo-widget/internal/metrics"
	"github.com/joeblew999/geo-widget/internal/service"
	"github.com/joeblew999/geo-widget/internal/storage"
	"github.com/joeblew999/geo-widget/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string // DuckDB file and tiles/; durable state is in-memory when empty
	WebDir  string // optional static files and fragment overrides
	// Catalogue is the widgets.yaml path; the built-in catalogue when empty.
	Catalogue string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	Logger *slog.Logger
}

// Server is the geo-widget HTTP server.
type Server struct {
	config   Config
	log      *slog.Logger
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	db       *sql.DB
	durable  storage.Backend
	session  storage.Backend
	services *api.Services
	renderer *templates.Renderer
}

// New creates a new server.
func New(ctx context.Context, cfg Config) (*Server, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{config: cfg, log: log, mux: http.NewServeMux()}

	catalogue, err := config.Load(cfg.Catalogue)
	if err != nil {
		return nil, err
	}

	if err := s.openStorage(ctx); err != nil {
		s.Close()
		return nil, err
	}

	if s.renderer, err = s.loadRenderer(); err != nil {
		s.Close()
		return nil, err
	}

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("geo-widget API", api.Version)
	humaConfig.Info.Description = "Geometry-editing map widgets kept in sync with SRID-prefixed WKT form values."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())
	s.humaAPI = humago.New(s.mux, humaConfig)

	tiles := service.NewTileService(cfg.DataDir, "/tiles")
	s.services = &api.Services{
		Tiles: tiles,
		Widgets: service.NewWidgetService(service.WidgetConfig{
			Catalogue: catalogue,
			Tiles:     tiles,
			Durable:   s.durable,
			Session:   s.session,
			Bus:       service.NewEventBus(),
			Logger:    log,
		}),
	}

	s.routes()
	s.handler = withIdentity(s.mux)
	return s, nil
}

func (s *Server) openStorage(ctx context.Context) error {
	if s.config.DataDir == "" {
		s.durable = storage.NewMemory()
	} else {
		conn, err := db.Open(ctx, db.Config{DataDir: s.config.DataDir, DBName: "geo"})
		if err != nil {
			return err
		}
		s.db = conn
		if s.durable, err = storage.NewDuckDB(ctx, conn); err != nil {
			return err
		}
	}

	if s.config.RedisAddr == "" {
		s.session = storage.NewMemory()
		return nil
	}
	client, err := storage.OpenRedis(ctx, s.config.RedisAddr, s.config.RedisPassword, s.config.RedisDB)
	if err != nil {
		return err
	}
	s.session = storage.NewRedis(client, "geowidget:", s.config.SessionTTL)
	return nil
}

func (s *Server) loadRenderer() (*templates.Renderer, error) {
	if s.config.WebDir != "" {
		fragmentsDir := filepath.Join(s.config.WebDir, "templates", "fragments")
		if _, err := os.Stat(fragmentsDir); err == nil {
			s.log.Info("loading fragment templates", "dir", fragmentsDir)
			return templates.New(os.DirFS(fragmentsDir))
		}
	}
	return templates.Embedded()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Widgets returns the widget registry.
func (s *Server) Widgets() *service.WidgetService {
	return s.services.Widgets
}

// Close tears down widgets and closes server resources. It is safe to call
// more than once.
func (s *Server) Close() error {
	if s.services != nil {
		s.services.Widgets.Close()
	}
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	if s.durable != nil {
		s.durable.Close()
		s.durable = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Server) backendNames() (durable, session string) {
	durable, session = "memory", "memory"
	if s.db != nil {
		durable = "duckdb"
	}
	if s.config.RedisAddr != "" {
		session = "redis"
	}
	return durable, session
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	durable, session := s.backendNames()
	api.NewInfoHandler(s.config.DataDir, durable, session).RegisterRoutes(s.humaAPI)

	// Register Editor SSE routes using Huma + Datastar SDK
	editor.NewWidgetHandler(s.services.Widgets, s.renderer, s.log).RegisterRoutes(s.humaAPI)

	s.mux.Handle("/metrics", metrics.Handler())
	s.mux.Handle("/tiles/", http.StripPrefix("/tiles/", s.handleTiles(s.services.Tiles.TilesDir())))

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Add("Link", `</health>; rel="service"`)
	w.Header().Add("Link", `</openapi.json>; rel="service-desc"`)
	json.NewEncoder(w).Encode(map[string]string{
		"service": "geo-widget",
		"status":  "running",
	})
}

func (s *Server) handleTiles(tilesDir string) http.Handler {
	files := http.FileServer(http.Dir(tilesDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		files.ServeHTTP(w, r)
	})
}
