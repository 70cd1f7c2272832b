package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/effectlens/effectdetect"
	"github.com/effectlens/effectdetect/pkg/testutil"
)

func newTestServerConfig(t *testing.T, mock *testutil.MockModelClient) ServerConfig {
	t.Helper()

	detector, err := effectdetect.New(effectdetect.Config{Primary: mock})
	if err != nil {
		t.Fatalf("failed to build detector: %v", err)
	}

	return ServerConfig{
		Port:           0,
		Detector:       detector,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		StartTime:      time.Now(),
		Version:        "test",
		CORSOrigins:    []string{"*"},
		MaxUploadBytes: effectdetect.DefaultMaxUploadBytes,
	}
}

// multipartClip builds a multipart body with one file field carrying the clip
// bytes under the given part content type.
func multipartClip(t *testing.T, field, filename, mediaType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if mediaType != "" {
		h.Set("Content-Type", mediaType)
	}

	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write clip bytes: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return &buf, mw.FormDataContentType()
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}

func TestClassifyEndpoint_Success(t *testing.T) {
	mock := &testutil.MockModelClient{
		VariantName: "gemini-2.0-flash-exp",
		AnalyzeVideoFunc: func(ctx context.Context, req effectdetect.ClassificationRequest) (string, error) {
			return `{"effect": "whip_pan", "confidence": 0.94, "description": "Fast pan with motion blur."}`, nil
		},
	}

	router := NewRouter(newTestServerConfig(t, mock))

	body, contentType := multipartClip(t, "file", "clip.mp4", "video/mp4", []byte("fake mp4 bytes"))
	req := httptest.NewRequest(http.MethodPost, "/classify", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeJSONBody(t, rr)
	if resp["effect"] != "whip_pan" {
		t.Errorf("effect = %v, want whip_pan", resp["effect"])
	}
	if resp["confidence"] != 0.94 {
		t.Errorf("confidence = %v, want 0.94", resp["confidence"])
	}
	if resp["model_used"] != "gemini-2.0-flash-exp" {
		t.Errorf("model_used = %v, want gemini-2.0-flash-exp", resp["model_used"])
	}

	if mock.Calls() != 1 {
		t.Errorf("model calls = %d, want 1", mock.Calls())
	}
}

func TestClassifyEndpoint_MediaTypeFromFilename(t *testing.T) {
	mock := &testutil.MockModelClient{}
	router := NewRouter(newTestServerConfig(t, mock))

	// No part content type; the handler must fall back to the extension.
	body, contentType := multipartClip(t, "file", "clip.mov", "", []byte("fake mov bytes"))
	req := httptest.NewRequest(http.MethodPost, "/classify", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	if got := mock.LastRequest.MediaType; got != "video/quicktime" {
		t.Errorf("media type = %q, want video/quicktime", got)
	}
}

func TestClassifyEndpoint_MissingFileField(t *testing.T) {
	mock := &testutil.MockModelClient{}
	router := NewRouter(newTestServerConfig(t, mock))

	body, contentType := multipartClip(t, "clip", "clip.mp4", "video/mp4", []byte("fake"))
	req := httptest.NewRequest(http.MethodPost, "/classify", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeJSONBody(t, rr)
	if resp["code"] != "INVALID_INPUT" {
		t.Errorf("code = %v, want INVALID_INPUT", resp["code"])
	}

	if mock.Calls() != 0 {
		t.Errorf("model calls = %d, want 0", mock.Calls())
	}
}

func TestClassifyEndpoint_UnsupportedMediaType(t *testing.T) {
	mock := &testutil.MockModelClient{}
	router := NewRouter(newTestServerConfig(t, mock))

	body, contentType := multipartClip(t, "file", "notes.txt", "text/plain", []byte("not a video"))
	req := httptest.NewRequest(http.MethodPost, "/classify", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	resp := decodeJSONBody(t, rr)
	if resp["code"] != "INVALID_INPUT" {
		t.Errorf("code = %v, want INVALID_INPUT", resp["code"])
	}

	if mock.Calls() != 0 {
		t.Errorf("model calls = %d, want 0 for a rejected upload", mock.Calls())
	}
}

func TestClassifyEndpoint_FailureMapping(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed output",
			answer:     "the model rambles instead of answering JSON",
			wantStatus: http.StatusBadGateway,
			wantCode:   "MALFORMED_OUTPUT",
		},
		{
			name:       "rate limited",
			err:        &effectdetect.PipelineError{Kind: effectdetect.FailRateLimited, Message: "quota exhausted"},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
		{
			name:       "auth error",
			err:        &effectdetect.PipelineError{Kind: effectdetect.FailAuthError, Message: "credential rejected"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "AUTH_ERROR",
		},
		{
			name:       "timeout",
			err:        &effectdetect.PipelineError{Kind: effectdetect.FailTimeout, Message: "attempt timed out"},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "TIMEOUT",
		},
		{
			name:       "service error",
			err:        &effectdetect.PipelineError{Kind: effectdetect.FailServiceError, Message: "provider rejected the clip"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "SERVICE_ERROR",
		},
		{
			name:       "unreachable",
			err:        &effectdetect.PipelineError{Kind: effectdetect.FailUnreachable, Message: "connection refused"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "UNREACHABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockModelClient{
				AnalyzeVideoFunc: func(ctx context.Context, req effectdetect.ClassificationRequest) (string, error) {
					if tt.err != nil {
						return "", tt.err
					}
					return tt.answer, nil
				},
			}

			router := NewRouter(newTestServerConfig(t, mock))

			body, contentType := multipartClip(t, "file", "clip.mp4", "video/mp4", []byte("fake"))
			req := httptest.NewRequest(http.MethodPost, "/classify", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status code = %d, want %d", rr.Code, tt.wantStatus)
			}

			resp := decodeJSONBody(t, rr)
			if resp["code"] != tt.wantCode {
				t.Errorf("code = %v, want %v", resp["code"], tt.wantCode)
			}
		})
	}
}

func TestClassifyEndpoint_Saturation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	mock := &testutil.MockModelClient{
		AnalyzeVideoFunc: func(ctx context.Context, req effectdetect.ClassificationRequest) (string, error) {
			once.Do(func() { close(started) })
			<-release
			return testutil.DefaultAnswer, nil
		},
	}

	cfg := newTestServerConfig(t, mock)
	cfg.MaxConcurrent = 1

	server := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(server.Close)
	releaseOnce := sync.OnceFunc(func() { close(release) })
	t.Cleanup(releaseOnce)

	firstBody, firstType := multipartClip(t, "file", "clip.mp4", "video/mp4", []byte("fake"))
	firstDone := make(chan int, 1)
	go func() {
		resp, err := http.Post(server.URL+"/classify", firstType, firstBody)
		if err != nil {
			firstDone <- 0
			return
		}
		resp.Body.Close()
		firstDone <- resp.StatusCode
	}()

	<-started

	client := &http.Client{Timeout: 5 * time.Second}
	secondBody, secondType := multipartClip(t, "file", "clip.mp4", "video/mp4", []byte("fake"))
	resp, err := client.Post(server.URL+"/classify", secondType, secondBody)
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status code = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(b, &errResp); err != nil {
		t.Fatalf("failed to decode saturation response: %v", err)
	}
	if errResp.Code != "RATE_LIMITED" {
		t.Errorf("code = %q, want RATE_LIMITED", errResp.Code)
	}

	releaseOnce()

	if got := <-firstDone; got != http.StatusOK {
		t.Errorf("in-flight request finished with %d, want %d", got, http.StatusOK)
	}
}

func TestHealthEndpoint(t *testing.T) {
	mock := &testutil.MockModelClient{}
	cfg := newTestServerConfig(t, mock)
	cfg.StartTime = time.Now().Add(-3 * time.Second)
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeJSONBody(t, rr)
	if resp["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", resp["status"])
	}
	if ready, ok := resp["model_ready"].(bool); !ok || !ready {
		t.Errorf("model_ready = %v, want true", resp["model_ready"])
	}
	if uptime, ok := resp["uptime_s"].(float64); !ok || uptime < 3 {
		t.Errorf("uptime_s = %v, want >= 3", resp["uptime_s"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestLabelsEndpoint(t *testing.T) {
	router := NewRouter(newTestServerConfig(t, &testutil.MockModelClient{}))

	req := httptest.NewRequest(http.MethodGet, "/labels", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp LabelsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if len(resp.Labels) != 11 {
		t.Fatalf("labels count = %d, want 11", len(resp.Labels))
	}
	if resp.Labels[0] != "hard_cut" {
		t.Errorf("first label = %q, want hard_cut", resp.Labels[0])
	}
	if resp.Labels[len(resp.Labels)-1] != "unknown" {
		t.Errorf("last label = %q, want unknown", resp.Labels[len(resp.Labels)-1])
	}
}

func TestStatusEndpoint(t *testing.T) {
	mock := &testutil.MockModelClient{}
	cfg := newTestServerConfig(t, mock)
	router := NewRouter(cfg)

	body, contentType := multipartClip(t, "file", "clip.mp4", "video/mp4", []byte("fake"))
	req := httptest.NewRequest(http.MethodPost, "/classify", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	resp := decodeJSONBody(t, rr)
	if got, ok := resp["total_requests"].(float64); !ok || got != 1 {
		t.Errorf("total_requests = %v, want 1", resp["total_requests"])
	}
	if got, ok := resp["failures"].(float64); !ok || got != 0 {
		t.Errorf("failures = %v, want 0", resp["failures"])
	}
}

func TestStatusForFailure(t *testing.T) {
	tests := []struct {
		kind       effectdetect.FailureKind
		wantStatus int
		wantCode   string
	}{
		{effectdetect.FailInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{effectdetect.FailTimeout, http.StatusGatewayTimeout, "TIMEOUT"},
		{effectdetect.FailRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{effectdetect.FailAuthError, http.StatusBadGateway, "AUTH_ERROR"},
		{effectdetect.FailUnreachable, http.StatusBadGateway, "UNREACHABLE"},
		{effectdetect.FailServiceError, http.StatusBadGateway, "SERVICE_ERROR"},
		{effectdetect.FailMalformedOutput, http.StatusBadGateway, "MALFORMED_OUTPUT"},
	}

	for _, tt := range tests {
		err := &effectdetect.PipelineError{Kind: tt.kind, Message: "boom"}
		status, code := statusForFailure(err)
		if status != tt.wantStatus || code != tt.wantCode {
			t.Errorf("statusForFailure(%s) = (%d, %s), want (%d, %s)",
				tt.kind, status, code, tt.wantStatus, tt.wantCode)
		}
	}

	status, code := statusForFailure(fmt.Errorf("plain error"))
	if status != http.StatusInternalServerError || code != "INTERNAL_ERROR" {
		t.Errorf("statusForFailure(plain) = (%d, %s), want (500, INTERNAL_ERROR)", status, code)
	}
}
