// Package tests drives a running WorkPulse instance over HTTP. It is skipped
// unless WORKPULSE_REAL_BASE_URL points at one, e.g. LOCAL=true go run .
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	realBaseURL string
	httpClient  = &http.Client{Timeout: 5 * time.Second}
)

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

func TestMain(m *testing.M) {
	realBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("WORKPULSE_REAL_BASE_URL")), "/")
	if realBaseURL == "" {
		fmt.Fprintln(os.Stderr, "skipping real tests: WORKPULSE_REAL_BASE_URL is not set")
		os.Exit(0)
	}

	if err := waitHealthy(realBaseURL+"/health", 10*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "real tests need a healthy server at %s: %v\n", realBaseURL, err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// waitHealthy polls url until it answers below 500 or the budget runs out.
func waitHealthy(url string, budget time.Duration) error {
	deadline := time.Now().Add(budget)
	for {
		resp, err := httpClient.Get(url)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode < http.StatusInternalServerError {
				return nil
			}
			err = fmt.Errorf("health returned %s", resp.Status)
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// doJSON sends payload as JSON (nil sends no body) with an optional bearer
// token and returns the status and raw body.
func doJSON(t *testing.T, method, path string, payload any, token string) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(context.Background(), httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, realBaseURL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

// decodeSuccess decodes the envelope and, when out is set, its data field.
func decodeSuccess(t *testing.T, body []byte, out any) successEnvelope {
	t.Helper()

	var env successEnvelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}
