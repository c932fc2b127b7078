// Package tfserving talks to a TensorFlow Serving instance over its REST API.
package tfserving

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const stateAvailable = "AVAILABLE"

type Client interface {
	GetModelStatus(ctx context.Context) (*ModelStatusResponse, error)
	Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error)
}

type HTTPClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ModelVersionStatus struct {
	Version string `json:"version"`
	State   string `json:"state"`
	Status  struct {
		ErrorCode    string `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

type ModelStatusResponse struct {
	ModelVersionStatus []ModelVersionStatus `json:"model_version_status"`
}

// Available reports whether any loaded version can serve requests.
func (r *ModelStatusResponse) Available() bool {
	for _, v := range r.ModelVersionStatus {
		if v.State == stateAvailable {
			return true
		}
	}
	return false
}

type PredictRequest struct {
	Instances []interface{} `json:"instances"`
}

type PredictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// StatusError carries a non-2xx reply from the server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tensorflow serving returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tensorflow serving returned status %d", e.StatusCode)
}

func NewClient(baseURL, model string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *HTTPClient) modelURL() string {
	return fmt.Sprintf("%s/v1/models/%s", c.baseURL, url.PathEscape(c.model))
}

func (c *HTTPClient) GetModelStatus(ctx context.Context) (*ModelStatusResponse, error) {
	out := &ModelStatusResponse{}
	if err := c.doJSON(ctx, http.MethodGet, c.modelURL(), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}
	out := &PredictResponse{}
	if err := c.doJSON(ctx, http.MethodPost, c.modelURL()+":predict", bytes.NewReader(body), out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("tensorflow serving: %s", out.Error)
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, body io.Reader, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)
		return &StatusError{StatusCode: resp.StatusCode, Message: payload.Error}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
