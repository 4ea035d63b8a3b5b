package aggregator

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tmarchand/socialpulse/internal/models"
	"github.com/tmarchand/socialpulse/internal/sources"
)

// startHTTPServer exposes the dashboard surface: dataset views, a CSV
// export and the collect/generate/autonomy triggers.
func (a *Aggregator) startHTTPServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/stats", a.statsHandler)
	mux.HandleFunc("/records", a.recordsHandler)
	mux.HandleFunc("/summary", a.summaryHandler)
	mux.HandleFunc("/export.csv", a.exportHandler)
	mux.HandleFunc("/collect", a.collectHandler)
	mux.HandleFunc("/import", a.importHandler)
	mux.HandleFunc("/generate", a.generateHandler)
	mux.HandleFunc("/autonomy/start", a.autonomyStartHandler)
	mux.HandleFunc("/autonomy/stop", a.autonomyStopHandler)

	a.server = &http.Server{
		Addr:    ":" + a.config.ServerPort,
		Handler: mux,
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("http server error", "error", err)
		}
	}()
}

func (a *Aggregator) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (a *Aggregator) statsHandler(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	lastID, lastAt := a.lastBatchID, a.lastBatchAt
	a.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"records":       a.dataset.Len(),
		"labels":        a.dataset.LabelCounts(),
		"autonomous":    a.isAutonomous(),
		"last_batch_id": lastID,
		"last_batch_at": lastAt,
	})
}

func (a *Aggregator) recordsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	snap := a.dataset.Snapshot()
	if len(snap) > limit {
		snap = snap[:limit]
	}

	if len(snap) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"records": []models.Record{},
			"message": "Aucune donnée collectée pour le moment.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": snap})
}

func (a *Aggregator) summaryHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"labels": a.dataset.LabelCounts()})
}

func (a *Aggregator) exportHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="posts_collected.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"platform", "timestamp", "author", "text", "sentiment_label", "sentiment_score"})
	for _, rec := range a.dataset.Snapshot() {
		cw.Write([]string{
			string(rec.Platform),
			rec.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			rec.Author,
			rec.Text,
			string(rec.Sentiment),
			strconv.FormatFloat(rec.Score, 'f', 2, 64),
		})
	}
	cw.Flush()
}

type collectRequest struct {
	Keywords []string `json:"keywords"`
	Limit    int      `json:"limit"`
}

func (a *Aggregator) collectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	terms := req.Keywords
	if len(terms) == 0 {
		terms = a.config.Keywords
	}
	limit := req.Limit
	if limit <= 0 {
		limit = a.config.FetchLimit
	}

	added, err := a.CollectOnce(r.Context(), terms, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "La sauvegarde a échoué, le lot n'a pas été conservé.",
		})
		return
	}

	message := "Aucun post trouvé pour les mots-clés fournis."
	if added > 0 {
		message = strconv.Itoa(added) + " posts collectés avec succès."
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "message": message})
}

func (a *Aggregator) importHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items, err := sources.ImportCSV(r.Body)
	if err != nil {
		http.Error(w, "invalid dataset: "+err.Error(), http.StatusBadRequest)
		return
	}

	added, err := a.IngestItems(r.Context(), models.PlatformImport, items)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "La sauvegarde a échoué, le lot n'a pas été conservé.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added})
}

func (a *Aggregator) generateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"post": a.GeneratePost(r.Context())})
}

func (a *Aggregator) autonomyStartHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	started := a.StartAutonomy()
	writeJSON(w, http.StatusOK, map[string]any{"autonomous": true, "started": started})
}

func (a *Aggregator) autonomyStopHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stopped := a.StopAutonomy()
	writeJSON(w, http.StatusOK, map[string]any{"autonomous": false, "stopped": stopped})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
