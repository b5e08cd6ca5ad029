package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Savio629/nregascan/internal/app"
	"github.com/Savio629/nregascan/internal/common"
	"github.com/Savio629/nregascan/internal/models"
	"github.com/Savio629/nregascan/internal/services/scraper"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/run", s.runHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/api/status", s.statusHandler)

	return mux
}

// runHandler triggers extraction-then-aggregation. Without parameters it
// processes yesterday's date in deduplicating mode; optional query
// parameters: date=DD/MM/YYYY, mode=bulk|dedup, all=1 (every available
// date except already-aggregated ones is left to the caller via date).
func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.runLimiter.Allow() {
		http.Error(w, "too many trigger requests", http.StatusTooManyRequests)
		return
	}

	sel := scraper.ExplicitDate(models.YesterdayDate(time.Now()))
	if date := r.URL.Query().Get("date"); date != "" {
		sel = scraper.ExplicitDate(date)
	}
	if r.URL.Query().Get("all") == "1" {
		sel = scraper.AllDates(nil, false)
	}

	mode := scraper.WriteModeDedup
	if r.URL.Query().Get("mode") == "bulk" {
		mode = scraper.WriteModeBulk
	}

	report, err := s.app.RunPipeline(r.Context(), sel, mode)
	if err != nil {
		if errors.Is(err, app.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}
		s.app.Logger.Error().Err(err).Msg("Pipeline run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
			"report": report,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"report": report,
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusHandler reports version and store counts.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"version":     common.GetFullVersion(),
		"environment": s.app.Config.Environment,
		"district":    s.app.Config.Site.DistrictName,
	}

	// A failed count is reported as such, not as a zero count.
	if summaries, err := s.app.SummaryStore.Count(); err != nil {
		s.app.Logger.Warn().Err(err).Msg("Failed to count summary entries")
		payload["summaries_error"] = err.Error()
	} else {
		payload["summaries"] = summaries
	}

	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
