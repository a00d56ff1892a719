package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Yashi-Piparsaniya/buildathon/internal/config"
	"github.com/Yashi-Piparsaniya/buildathon/internal/database"
	"github.com/Yashi-Piparsaniya/buildathon/internal/models"
	"github.com/Yashi-Piparsaniya/buildathon/internal/services"
)

const Version = "1.0.0"

// maxRequestBody caps the raw body read; a 3 MB payload is at most 4 MB of
// base64 plus field overhead.
const maxRequestBody = 8 << 20

type Handler struct {
	svc       *services.DetectionService
	metrics   *services.Metrics
	store     *database.Store
	cfg       *config.Config
	startTime time.Time
}

func NewHandler(svc *services.DetectionService, metrics *services.Metrics, store *database.Store, cfg *config.Config) *Handler {
	return &Handler{
		svc:       svc,
		metrics:   metrics,
		store:     store,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

func (h *Handler) enableCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.cfg.CORSOrigins)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, models.RootStatus{
		Status:      "API is working",
		ModelLoaded: h.svc.ModelLoaded(),
		Version:     Version,
		Endpoints: []string{
			"GET /", "GET /health", "GET /metrics", "GET /history",
			"POST /deepfake", "POST /detect", "POST /detect-with-model",
			"WS /ws",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, models.HealthStatus{
		Status:      "healthy",
		ModelLoaded: h.svc.ModelLoaded(),
		Uptime:      time.Since(h.startTime).Seconds(),
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}

// Detect never returns an HTTP error: whatever arrives, the caller gets a
// 200 with a valid classification within the latency budget.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := h.readBody(r)
	res := h.svc.Detect(r.Context(), body, r.Header.Get("Content-Type"))
	writeJSON(w, http.StatusOK, res)
}

// DetectWithModel shares Detect's never-fail contract but attempts real
// inference first.
func (h *Handler) DetectWithModel(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := h.readBody(r)
	res := h.svc.DetectWithModel(r.Context(), body, r.Header.Get("Content-Type"))
	writeJSON(w, http.StatusOK, res)
}

// Deepfake is the explicit multipart-upload path. It is the only endpoint
// allowed to pair a validation error with a non-200 status.
func (h *Handler) Deepfake(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ClassificationResult{
			Classification: models.LabelError,
			Confidence:     0,
			Explanation:    "Missing required file field: audio_file",
		})
		return
	}
	defer file.Close()

	audio, err := services.ReadUpload(file)
	if err != nil {
		log.Printf("Upload unusable (%s): %v", header.Filename, err)
		writeJSON(w, http.StatusBadRequest, models.ClassificationResult{
			Classification: models.LabelError,
			Confidence:     0,
			Explanation:    err.Error(),
		})
		return
	}

	res := h.svc.ClassifyUpload(r.Context(), audio, fileExt(header.Filename))
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.metrics.Snapshot())
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.enableCORS(w)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{
			Error:     "detection history is disabled",
			Timestamp: time.Now().Unix(),
			Code:      "HISTORY_DISABLED",
		})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	detections, err := h.store.RecentDetections(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to fetch history: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Error:     "failed to fetch history",
			Timestamp: time.Now().Unix(),
		})
		return
	}
	if detections == nil {
		detections = []models.Detection{}
	}
	writeJSON(w, http.StatusOK, detections)
}

func (h *Handler) readBody(r *http.Request) []byte {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		// Частично прочитанное тело всё равно идёт в пайплайн
		log.Printf("Body read error: %v", err)
	}
	return body
}

func fileExt(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return "wav"
}
