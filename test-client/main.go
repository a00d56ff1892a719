package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

const BackendURL = "http://localhost:8000"

// Минимальный WAV-заголовок, чтобы пейлоад был похож на аудио
var sampleAudio = append([]byte("RIFF$\x00\x00\x00WAVEfmt "), bytes.Repeat([]byte{0x11, 0x22}, 64)...)

// Проверка состояния
func testHealth() error {
	fmt.Println("\n[TEST] Testing /health...")
	resp, err := http.Get(BackendURL + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("✓ Health check: %s\n", string(body))
	return nil
}

// Проверка корня
func testRoot() error {
	fmt.Println("\n[TEST] Testing /...")
	resp, err := http.Get(BackendURL + "/")
	if err != nil {
		return fmt.Errorf("root check failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("✓ Root: %s\n", string(body))
	return nil
}

// Проверка детекции (и её детерминизма)
func testDetect() error {
	fmt.Println("\n[TEST] Testing /detect...")

	data := map[string]string{
		"audio_base64": base64.StdEncoding.EncodeToString(sampleAudio),
		"audio_format": "wav",
		"language":     "en",
	}
	jsonData, _ := json.Marshal(data)

	var previous string
	for i := 0; i < 2; i++ {
		resp, err := http.Post(BackendURL+"/detect", "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			return fmt.Errorf("detect request failed: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("detect failed: status %d, body: %s", resp.StatusCode, string(body))
		}
		if previous != "" && previous != string(body) {
			return fmt.Errorf("determinism broken: %s vs %s", previous, string(body))
		}
		previous = string(body)
	}

	fmt.Printf("✓ Detect (stable across retries): %s\n", previous)
	return nil
}

// Мусорное тело всё равно должно получить 200 и валидный ответ
func testDetectGarbage() error {
	fmt.Println("\n[TEST] Testing /detect with garbage body...")

	resp, err := http.Post(BackendURL+"/detect", "text/plain", bytes.NewBufferString("not json"))
	if err != nil {
		return fmt.Errorf("detect request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expected 200 for garbage body, got %d: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("✓ Garbage body: %s\n", string(body))
	return nil
}

// Проверка пути с реальной моделью
func testDetectWithModel() error {
	fmt.Println("\n[TEST] Testing /detect-with-model...")

	data := map[string]string{
		"audiobase64": base64.StdEncoding.EncodeToString(sampleAudio),
		"audioformat": "wav",
		"language":    "ta",
	}
	jsonData, _ := json.Marshal(data)

	start := time.Now()
	resp, err := http.Post(BackendURL+"/detect-with-model", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("detect-with-model request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detect-with-model failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("✓ Detect-with-model in %v: %s\n", time.Since(start), string(body))
	return nil
}

// Проверка загрузки файла
func testDeepfakeUpload() error {
	fmt.Println("\n[TEST] Testing /deepfake...")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio_file", "sample.wav")
	if err != nil {
		return err
	}
	part.Write(sampleAudio)
	mw.Close()

	resp, err := http.Post(BackendURL+"/deepfake", mw.FormDataContentType(), &buf)
	if err != nil {
		return fmt.Errorf("deepfake request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deepfake failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("✓ Deepfake upload: %s\n", string(body))
	return nil
}

func main() {
	fmt.Println("=== Deepfake Voice Detection API Test Client ===")
	fmt.Printf("Backend: %s\n", BackendURL)

	tests := []func() error{
		testHealth,
		testRoot,
		testDetect,
		testDetectGarbage,
		testDetectWithModel,
		testDeepfakeUpload,
	}

	failed := 0
	for _, test := range tests {
		if err := test(); err != nil {
			log.Printf("✗ %v", err)
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d test(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("\nAll tests passed!")
}
