package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/docsense/constants"
	"github.com/joseph-ayodele/docsense/internal/common"
	"github.com/joseph-ayodele/docsense/internal/core/ingest"
	"github.com/joseph-ayodele/docsense/internal/core/result"
	"github.com/joseph-ayodele/docsense/internal/entity"
)

// Processor is the pipeline entry point served by both transports.
type Processor interface {
	ProcessDocument(ctx context.Context, src ingest.Source) (*entity.ProcessingResult, error)
}

type HTTPConfig struct {
	OutputDir      string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// artifacts maps the public artifact names to files in a run directory.
var artifacts = map[string]string{
	"heatmap":  constants.HeatmapArtifact,
	"fields":   constants.FieldsArtifact,
	"decision": constants.DecisionArtifact,
}

type HTTPHandler struct {
	cfg      HTTPConfig
	proc     Processor
	ready    func(context.Context) error
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewHTTPHandler builds the chi router. ready backs /healthz and may be nil;
// gatherer backs /metrics and may be nil to omit the route.
func NewHTTPHandler(cfg HTTPConfig, proc Processor, ready func(context.Context) error, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	h := &HTTPHandler{cfg: cfg, proc: proc, ready: ready, gatherer: gatherer, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.health)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", h.processDocument)
		r.Get("/runs/{run_id}/{artifact}", h.artifact)
	})
	return r
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *HTTPHandler) health(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processDocument accepts either a multipart form with a "file" part or a raw image body.
func (h *HTTPHandler) processDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	name, data, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.cfg.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	ctx = common.WithRequestID(ctx, middleware.GetReqID(r.Context()))

	res, err := h.proc.ProcessDocument(ctx, ingest.FromBytes(name, data))
	if err != nil {
		body := map[string]any{"error": err.Error(), "code": common.CodeOf(err)}
		if res != nil {
			body["result"] = res.View()
		}
		writeJSON(w, httpStatus(err), body)
		return
	}

	view := res.View()
	if err := result.Validate(view); err != nil {
		h.logger.Error("result view failed schema validation", "run_id", view.RunID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("multipart field %q: %w", "file", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return hdr.Filename, data, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}
	return name, data, nil
}

func (h *HTTPHandler) artifact(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("run_id must be a UUID"))
		return
	}
	file, ok := artifacts[chi.URLParam(r, "artifact")]
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("artifact must be one of heatmap, fields, decision"))
		return
	}
	path := filepath.Join(h.cfg.OutputDir, runID.String(), file)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, common.ErrNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

// httpStatus maps pipeline error kinds to HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrIngestion):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrCanceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
