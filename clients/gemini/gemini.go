// Package gemini is a minimal client for the slice of the Gemini API the
// effect detector needs: media upload, file-state polling, content
// generation, and file deletion.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

const (
	// DefaultPollInterval is how often WaitForFileActive re-checks an
	// uploaded file's state.
	DefaultPollInterval = 2 * time.Second

	// DefaultActivationWait caps how long WaitForFileActive polls before
	// giving up on a file that never leaves PROCESSING.
	DefaultActivationWait = 120 * time.Second
)

// ErrFileNotActive reports that an uploaded file was still processing when
// the activation wait elapsed.
var ErrFileNotActive = errors.New("uploaded file did not become active in time")

// ErrFileProcessingFailed reports that the provider could not process an
// uploaded file at all.
var ErrFileProcessingFailed = errors.New("provider failed to process the uploaded file")

// Client is a minimal client for the Gemini API.
type Client struct {
	APIKey         string
	HTTPClient     *http.Client
	BaseURL        string
	PollInterval   time.Duration
	ActivationWait time.Duration
}

// Creates a new Gemini API client
func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:         apiKey,
		HTTPClient:     http.DefaultClient,
		BaseURL:        geminiBaseURL,
		PollInterval:   DefaultPollInterval,
		ActivationWait: DefaultActivationWait,
	}
}

// UploadFile stores a clip in the provider's file store and returns the
// created file resource, usually still in the PROCESSING state. Callers own
// the returned file and must delete it when done with it.
func (c *Client) UploadFile(ctx context.Context, data []byte, mimeType string) (*File, error) {
	url := c.BaseURL + "/upload/v1beta/files"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.APIKey)
	httpReq.Header.Set("X-Goog-Upload-Protocol", "raw")
	httpReq.Header.Set("Content-Type", mimeType)

	body, err := c.do(httpReq, "upload")
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to parse upload response: %v", err),
			RawBody: json.RawMessage(body),
		}
	}
	if resp.File.Name == "" {
		return nil, &APIError{
			Message: "upload response carries no file name",
			RawBody: json.RawMessage(body),
		}
	}

	return &resp.File, nil
}

// GetFile fetches the current state of an uploaded file by its resource name
// (e.g. "files/abc-123").
func (c *Client) GetFile(ctx context.Context, name string) (*File, error) {
	url := c.BaseURL + "/v1beta/" + name

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create get-file request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	body, err := c.do(httpReq, "get-file")
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to parse get-file response: %v", err),
			RawBody: json.RawMessage(body),
		}
	}

	return &file, nil
}

// WaitForFileActive polls an uploaded file until the provider reports it
// ACTIVE. It returns ErrFileProcessingFailed when the provider gives up on
// the file, and ErrFileNotActive when the file is still processing once the
// activation wait elapses.
func (c *Client) WaitForFileActive(ctx context.Context, name string) (*File, error) {
	var file *File

	b := retry.WithMaxDuration(c.ActivationWait, retry.NewConstant(c.PollInterval))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		f, err := c.GetFile(ctx, name)
		if err != nil {
			return err
		}

		switch f.State {
		case FileStateActive:
			file = f
			return nil
		case FileStateFailed:
			return fmt.Errorf("%w: %s", ErrFileProcessingFailed, name)
		default:
			return retry.RetryableError(fmt.Errorf("%w: %s is still %s", ErrFileNotActive, name, f.State))
		}
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// GenerateContent asks the given model variant to answer the request and
// returns the parsed response.
func (c *Client) GenerateContent(ctx context.Context, model string, req GenerateContentRequest) (*GenerateContentResponse, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, model)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate-content request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate-content request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := c.do(httpReq, "generate-content")
	if err != nil {
		return nil, err
	}

	var resp GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to parse generate-content response: %v", err),
			RawBody: json.RawMessage(body),
		}
	}

	return &resp, nil
}

// GetModel fetches the metadata of a model variant (e.g.
// "gemini-2.0-flash-exp"). It doubles as a credential and availability probe:
// a bad key answers 401/403 and an unknown variant answers 404.
func (c *Client) GetModel(ctx context.Context, model string) (*Model, error) {
	url := c.BaseURL + "/v1beta/models/" + model

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create get-model request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	body, err := c.do(httpReq, "get-model")
	if err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &APIError{
			Message: fmt.Sprintf("failed to parse get-model response: %v", err),
			RawBody: json.RawMessage(body),
		}
	}

	return &m, nil
}

// DeleteFile removes an uploaded file from the provider's file store.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	url := c.BaseURL + "/v1beta/" + name

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete-file request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	_, err = c.do(httpReq, "delete-file")
	return err
}

// do executes the request and maps non-2xx answers to *APIError.
func (c *Client) do(req *http.Request, apiName string) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response body: %w", apiName, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("gemini %s API error %d", apiName, resp.StatusCode),
			RawBody:    json.RawMessage(bodyBytes),
		}

		var envelope apiErrorEnvelope
		if json.Unmarshal(bodyBytes, &envelope) == nil && envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
			apiErr.Status = envelope.Error.Status
		}

		return nil, apiErr
	}

	return bodyBytes, nil
}
