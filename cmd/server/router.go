package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/goccy/go-json"

	"github.com/smrichards/dota2-llm/internal/db"
	"github.com/smrichards/dota2-llm/internal/logging"
)

const maxHeroLimit = 200

// statsReader is the read side of db.StatsStore.
type statsReader interface {
	HeroStats(ctx context.Context, limit int) ([]db.HeroStat, error)
	Version(ctx context.Context) (db.DataVersion, error)
	ExportCSV(ctx context.Context, w io.Writer) error
}

type heroResponse struct {
	db.HeroStat
	WinRate float64 `json:"win_rate"`
}

func newRouter(st statsReader) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Get("/version", versionHandler(st))
		r.Get("/heroes", heroesHandler(st))
		r.Get("/heroes.csv", heroesCSVHandler(st))
	})
	return r
}

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				route := req.URL.Path
				if rc := chi.RouteContext(req.Context()); rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("route", route),
				}
			},
		},
	)
}

func versionHandler(st statsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := st.Version(r.Context())
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no_data")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func heroesHandler(st statsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		stats, err := st.HeroStats(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		out := make([]heroResponse, len(stats))
		for i, h := range stats {
			out[i] = heroResponse{HeroStat: h, WinRate: h.WinRate()}
		}
		writeJSON(w, http.StatusOK, map[string]any{"heroes": out})
	}
}

func heroesCSVHandler(st statsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="hero_stats.csv"`)
		if err := st.ExportCSV(r.Context(), w); err != nil {
			logging.For("server").Error().Err(err).Msg("csv export failed")
		}
	}
}

// parseLimit reads ?limit=, defaulting to 50 and clamping to maxHeroLimit.
func parseLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 50, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.New("invalid limit")
	}
	if n > maxHeroLimit {
		n = maxHeroLimit
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}
