// Package dashboard serves the processed daily-report series as an
// interactive page: a choropleth map, four time-series panels, summary
// cards and an expandable raw-data table.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/cache"
	"github.com/sells-group/covidsync/internal/source"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Options configures a Server.
type Options struct {
	DefaultVariant string
	CORSOrigins    []string
	CacheTTL       time.Duration
}

// Server wires the dataset loader and payload cache to HTTP routes.
type Server struct {
	reg    *source.Registry
	loader *Loader
	cache  cache.Cache
	opts   Options
	log    *zap.Logger
}

// NewServer creates a dashboard server. c may be nil to disable caching.
func NewServer(reg *source.Registry, loader *Loader, c cache.Cache, opts Options) *Server {
	if opts.DefaultVariant == "" {
		if names := reg.Names(); len(names) > 0 {
			opts.DefaultVariant = names[0]
		}
	}
	return &Server{
		reg:    reg,
		loader: loader,
		cache:  c,
		opts:   opts,
		log:    zap.L().With(zap.String("component", "dashboard")),
	}
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/"+s.opts.DefaultVariant, http.StatusFound)
	})

	r.Route("/api/{variant}", func(r chi.Router) {
		r.Get("/entities", s.cached(func(ds *Dataset, _ *http.Request) (any, error) {
			return Entities(ds), nil
		}))
		r.Get("/map", s.cached(func(ds *Dataset, req *http.Request) (any, error) {
			q := req.URL.Query()
			return Map(ds, q.Get("metric"), q.Get("date"))
		}))
		r.Get("/series", s.cached(func(ds *Dataset, req *http.Request) (any, error) {
			return Series(ds, req.URL.Query().Get("entity"))
		}))
		r.Get("/cards", s.cached(func(ds *Dataset, req *http.Request) (any, error) {
			return Cards(ds, req.URL.Query().Get("entity"))
		}))
		r.Get("/rows", s.cached(func(ds *Dataset, req *http.Request) (any, error) {
			q := req.URL.Query()
			limit := 0
			if l := q.Get("limit"); l != "" {
				n, err := strconv.Atoi(l)
				if err != nil || n < 0 {
					return nil, ErrInvalid
				}
				limit = n
			}
			return Rows(ds, q.Get("entity"), limit)
		}))
		r.Post("/refresh", s.handleRefresh)
	})

	r.Get("/{variant}", s.handlePage)
	return r
}

type pageData struct {
	Title    string
	Variant  string
	Variants []string
	Error    string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	v, err := s.reg.Get(chi.URLParam(r, "variant"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	data := pageData{Title: v.Title, Variant: v.Name, Variants: s.reg.Names()}
	status := http.StatusOK
	if _, err := s.loader.Get(r.Context(), v); err != nil {
		s.log.Warn("dataset unavailable", zap.String("variant", v.Name), zap.Error(err))
		data.Error = "Data for " + v.Name + " is unavailable: " + err.Error()
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		s.log.Error("render page", zap.Error(err))
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	v, err := s.reg.Get(chi.URLParam(r, "variant"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	ds, err := s.loader.Refresh(r.Context(), v)
	if err != nil {
		s.log.Error("refresh failed", zap.String("variant", v.Name), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.invalidate(r.Context(), v)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "refreshed",
		"variant":   v.Name,
		"entities":  len(ds.Entities),
		"dates":     len(ds.Dates),
		"loaded_at": ds.LoadedAt,
	})
}

type viewFunc func(ds *Dataset, r *http.Request) (any, error)

// cached resolves the variant's dataset, serves a cached payload when one
// exists, and otherwise renders and stores fn's result.
func (s *Server) cached(fn viewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.reg.Get(chi.URLParam(r, "variant"))
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		key := cacheKey(v, r)
		if s.cache != nil {
			if body, err := s.cache.Get(r.Context(), key); err == nil {
				writeBody(w, http.StatusOK, body)
				return
			} else if !errors.Is(err, cache.ErrMiss) {
				s.log.Warn("cache get", zap.String("key", key), zap.Error(err))
			}
		}

		ds, err := s.loader.Get(r.Context(), v)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		payload, err := fn(ds, r)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrInvalid) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err)
			return
		}

		body, err := json.Marshal(payload)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if s.cache != nil {
			if err := s.cache.Set(r.Context(), key, body, s.opts.CacheTTL); err != nil {
				s.log.Warn("cache set", zap.String("key", key), zap.Error(err))
			}
		}
		writeBody(w, http.StatusOK, body)
	}
}

func (s *Server) invalidate(ctx context.Context, v *source.Variant) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, cachePrefix(v)); err != nil {
		s.log.Warn("cache invalidate", zap.String("variant", v.Name), zap.Error(err))
	}
}

func cachePrefix(v *source.Variant) string { return "covidsync:dash:" + v.Name + ":" }

func cacheKey(v *source.Variant, r *http.Request) string {
	return cachePrefix(v) + r.URL.Path + "?" + r.URL.Query().Encode()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck,gosec
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
