package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Classifier is the external inference capability. Implementations must be
// safe for concurrent use; the service invokes them from multiple requests
// at once.
type Classifier interface {
	// Classify returns the raw model label, "REAL" or "FAKE".
	Classify(ctx context.Context, audioPath string) (string, error)
	// Probe reports whether the model is up and able to serve.
	Probe(ctx context.Context) error
}

// HTTPClassifier talks to the Python inference sidecar.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

func NewHTTPClassifier(url string) *HTTPClassifier {
	return &HTTPClassifier{
		url: url,
		client: &http.Client{
			// Per-call deadlines come from the caller's context; this is a
			// hard ceiling against a wedged sidecar connection.
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPClassifier) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference service unreachable at %s: %w", c.url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *HTTPClassifier) Classify(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("could not open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio_file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("could not buffer audio file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/infer", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("could not decode inference response: %w", err)
	}

	if out.Label != rawLabelReal && out.Label != rawLabelFake {
		log.Printf("Unexpected label from inference service: %q", out.Label)
		return "", fmt.Errorf("unexpected label %q", out.Label)
	}
	return out.Label, nil
}
