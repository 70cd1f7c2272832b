package gemini

import (
	"encoding/json"
	"net/http"
	"strings"
)

// FileState is the provider-side processing state of an uploaded file.
type FileState string

const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// File is the provider-side resource created for an uploaded clip. The URI is
// what generateContent requests reference; the Name is what GetFile and
// DeleteFile address.
type File struct {
	Name      string    `json:"name"`
	URI       string    `json:"uri"`
	MimeType  string    `json:"mimeType"`
	SizeBytes string    `json:"sizeBytes,omitempty"`
	State     FileState `json:"state"`
}

// uploadResponse is the envelope returned by the media upload endpoint.
type uploadResponse struct {
	File File `json:"file"`
}

// Model is the metadata the provider reports for a model variant.
type Model struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// GenerateContentRequest is the request body for the generateContent endpoint.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part carries either inline text or a reference to an uploaded file.
type Part struct {
	Text     string    `json:"text,omitempty"`
	FileData *FileData `json:"fileData,omitempty"`
}

type FileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type GenerationConfig struct {
	Temperature      *float32 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

// GenerateContentResponse is the response from the generateContent endpoint.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// PromptFeedback is populated when the provider refuses to answer, e.g. for
// safety-blocked content.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Text concatenates the textual parts of the first candidate. It returns the
// empty string when the response carries no candidates or no text parts.
func (r *GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// apiErrorEnvelope mirrors the error body the Gemini API returns for non-2xx
// answers.
type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// APIError wraps a non-2xx provider answer with the raw response body for
// error logging.
type APIError struct {
	StatusCode int             `json:"status_code"`
	Status     string          `json:"status,omitempty"`
	Message    string          `json:"message"`
	RawBody    json.RawMessage `json:"raw_body,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// GetRawResponseBody returns the raw response body if available.
func (e *APIError) GetRawResponseBody() json.RawMessage {
	return e.RawBody
}

// VariantUnavailable reports whether the failure means the requested model
// variant itself was unavailable, as opposed to a problem with the request
// content or the credential.
func (e *APIError) VariantUnavailable() bool {
	switch e.StatusCode {
	case http.StatusNotFound, http.StatusNotImplemented, http.StatusServiceUnavailable:
		return true
	}
	return false
}
