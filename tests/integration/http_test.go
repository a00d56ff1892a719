package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Yashi-Piparsaniya/buildathon/internal/models"
)

const baseURL = "http://localhost:8000"

var client = &http.Client{Timeout: 10 * time.Second}

// Эти тесты требуют запущенного сервера
func requireServer(t *testing.T) {
	t.Helper()
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		t.Skipf("Server not running at %s: %v", baseURL, err)
	}
	resp.Body.Close()
}

func TestHTTPHealth(t *testing.T) {
	requireServer(t)

	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()

	var status models.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("Bad health body: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", status.Status)
	}

	t.Logf("Health: %+v", status)
}

func TestHTTPDetectDeterminism(t *testing.T) {
	requireServer(t)

	body := []byte(`{"audio_base64": "UklGRiQAAABXQVZFZm10IA==", "audio_format": "wav", "language": "en"}`)

	var results []models.ClassificationResult
	for i := 0; i < 2; i++ {
		resp, err := client.Post(baseURL+"/detect", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("Detect request failed: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Status %d, want 200", resp.StatusCode)
		}

		var res models.ClassificationResult
		err = json.NewDecoder(resp.Body).Decode(&res)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("Bad detect body: %v", err)
		}
		results = append(results, res)
	}

	if results[0] != results[1] {
		t.Errorf("Identical payloads got different verdicts: %+v vs %+v", results[0], results[1])
	}

	t.Logf("Verdict: %+v", results[0])
}

func TestHTTPDetectLatency(t *testing.T) {
	requireServer(t)

	body := []byte(fmt.Sprintf(`{"audio_base64": %q, "audio_format": "wav", "language": "ta"}`,
		"UklGRiQAAABXQVZFZm10IFNPTUVCWVRFUw=="))

	start := time.Now()
	resp, err := client.Post(baseURL+"/detect", "application/json", bytes.NewReader(body))
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Detect request failed: %v", err)
	}
	defer resp.Body.Close()

	if elapsed > 5*time.Second {
		t.Errorf("Detect took %v, budget is 5s", elapsed)
	}

	t.Logf("Detect responded in %v", elapsed)
}
