package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/semaphore"

	"github.com/effectlens/effectdetect"
)

// multipartOverhead is the slack added to the body ceiling so a clip at
// exactly the upload limit still fits alongside the multipart framing.
const multipartOverhead = 1 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSMiddleware(cfg.CORSOrigins))

	var inflight *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		inflight = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}

	r.Get("/health", healthHandler(cfg))
	r.Get("/labels", labelsHandler())
	r.Get("/status", statusHandler(cfg))
	r.Post("/classify", classifyHandler(cfg, inflight))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:     "healthy",
			ModelReady: cfg.Detector != nil,
			Version:    cfg.Version,
			UptimeS:    uptime,
		})
	}
}

func labelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		labels := effectdetect.Labels()
		resp := LabelsResponse{Labels: make([]string, len(labels))}
		for i, l := range labels {
			resp.Labels[i] = l.String()
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Detector == nil {
			WriteError(w, http.StatusServiceUnavailable, "detector not ready", "NOT_READY")
			return
		}

		m := cfg.Detector.Metrics()
		WriteJSON(w, http.StatusOK, StatusResponse{
			TotalRequests:           m.TotalRequests,
			Failures:                m.Failures,
			LowConfidenceFallbacks:  m.LowConfidenceFallbacks,
			UnknownLabelCoercions:   m.UnknownLabelCoercions,
			SecondaryVariantAnswers: m.SecondaryVariantAnswers,
		})
	}
}

// classifyHandler accepts one clip as the multipart form field "file" and
// answers with the classification result. Saturation is rejected immediately
// rather than queued.
func classifyHandler(cfg ServerConfig, inflight *semaphore.Weighted) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if inflight != nil {
			if !inflight.TryAcquire(1) {
				WriteError(w, http.StatusTooManyRequests, "too many classifications in flight", "RATE_LIMITED")
				return
			}
			defer inflight.Release(1)
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes+multipartOverhead)

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "multipart form field \"file\" is required: "+err.Error(), "INVALID_INPUT")
			return
		}
		defer file.Close()

		mediaType := header.Header.Get("Content-Type")
		if mediaType == "" || mediaType == "application/octet-stream" {
			if mt := effectdetect.MediaTypeForFilename(header.Filename); mt != "" {
				mediaType = mt
			}
		}

		result, err := cfg.Detector.Classify(r.Context(), file, mediaType, header.Size)
		if err != nil {
			status, code := statusForFailure(err)
			WriteError(w, status, err.Error(), code)
			return
		}

		WriteJSON(w, http.StatusOK, result)
	}
}

// statusForFailure maps a classification failure to its HTTP status and
// stable error code. Provider-side failures surface as 502 because this
// service acts as a gateway to the model.
func statusForFailure(err error) (int, string) {
	kind, ok := effectdetect.KindOf(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}

	switch kind {
	case effectdetect.FailInvalidInput:
		return http.StatusBadRequest, "INVALID_INPUT"
	case effectdetect.FailTimeout:
		return http.StatusGatewayTimeout, "TIMEOUT"
	case effectdetect.FailRateLimited:
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case effectdetect.FailAuthError:
		return http.StatusBadGateway, "AUTH_ERROR"
	case effectdetect.FailUnreachable:
		return http.StatusBadGateway, "UNREACHABLE"
	case effectdetect.FailServiceError:
		return http.StatusBadGateway, "SERVICE_ERROR"
	case effectdetect.FailMalformedOutput:
		return http.StatusBadGateway, "MALFORMED_OUTPUT"
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
