package httpapi

// HealthResponse is the GET /health body. ModelReady mirrors whether a
// detector was constructed at startup.
type HealthResponse struct {
	Status     string `json:"status"`
	ModelReady bool   `json:"model_ready"`
	Version    string `json:"version"`
	UptimeS    int64  `json:"uptime_s"`
}

// LabelsResponse is the GET /labels body: the ordered taxonomy, fallback label
// last, so clients can render the label set without hardcoding it.
type LabelsResponse struct {
	Labels []string `json:"labels"`
}

// StatusResponse is the GET /status body, exposing the detector's counters
// since process start.
type StatusResponse struct {
	TotalRequests           int `json:"total_requests"`
	Failures                int `json:"failures"`
	LowConfidenceFallbacks  int `json:"low_confidence_fallbacks"`
	UnknownLabelCoercions   int `json:"unknown_label_coercions"`
	SecondaryVariantAnswers int `json:"secondary_variant_answers"`
}

// ErrorResponse is the body of every non-2xx answer. Code is a stable
// machine-readable identifier; Error is human-readable detail.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
