package otpflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	pathGenerate = "/api/v1/auth/otp/generate"
	pathVerify   = "/api/v1/auth/otp/verify"
)

// HTTPClient talks to the WorkPulse HTTP API.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// NewHTTPClient returns a client for baseURL. A nil hc uses a client with a 10s timeout.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) error {
	return c.post(ctx, pathGenerate, req)
}

func (c *HTTPClient) Verify(ctx context.Context, email, code string) error {
	return c.post(ctx, pathVerify, struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}{Email: email, Code: code})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("otpflow: %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("otpflow: %s: read response: %w", path, err)
	}

	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Message == "" {
		env.Message = http.StatusText(resp.StatusCode)
	}

	return &ServerError{Status: resp.StatusCode, Message: env.Message}
}
