package services

import (
	"strings"
	"testing"
)

func TestMergeBodyJSON(t *testing.T) {
	body := []byte(`{"Audio_Base64": "QWFh", " Language ": "en", "audio_format": "wav", "count": 3}`)
	merged, ok := MergeBody(body, "application/json")
	if !ok {
		t.Fatal("Expected JSON body to parse")
	}
	if merged["audio_base64"] != "QWFh" {
		t.Errorf("Key not lowercased: %v", merged)
	}
	if merged["language"] != "en" {
		t.Errorf("Key not trimmed: %v", merged)
	}
	if merged["count"] != "3" {
		t.Errorf("Numeric value not stringified: %v", merged)
	}
}

func TestMergeBodyForm(t *testing.T) {
	body := []byte("AudioFormat=mp3&language=ta&audio_base64=QWJj")
	merged, ok := MergeBody(body, "application/x-www-form-urlencoded")
	if !ok {
		t.Fatal("Expected form body to parse")
	}
	if merged["audioformat"] != "mp3" || merged["language"] != "ta" || merged["audio_base64"] != "QWJj" {
		t.Errorf("Unexpected merge: %v", merged)
	}
}

func TestMergeBodyMultipart(t *testing.T) {
	boundary := "xxBOUNDARYxx"
	body := strings.Join([]string{
		"--" + boundary,
		`Content-Disposition: form-data; name="audio base64"`,
		"",
		"QWFhYWFh",
		"--" + boundary,
		`Content-Disposition: form-data; name="language"`,
		"",
		"en",
		"--" + boundary + "--",
		"",
	}, "\r\n")

	merged, ok := MergeBody([]byte(body), "multipart/form-data; boundary="+boundary)
	if !ok {
		t.Fatal("Expected multipart body to parse")
	}
	if merged["audio base64"] != "QWFhYWFh" || merged["language"] != "en" {
		t.Errorf("Unexpected merge: %v", merged)
	}
}

func TestMergeBodyGarbage(t *testing.T) {
	merged, ok := MergeBody([]byte("not json"), "")
	if ok {
		t.Fatalf("Expected garbage body to fail both parsers, got %v", merged)
	}
}

func TestMergeBodyNonObjectJSON(t *testing.T) {
	if _, ok := MergeBody([]byte(`[1, 2, 3]`), "application/json"); ok {
		t.Error("Expected non-object JSON to be swallowed")
	}
}

func TestResolveFieldsAliases(t *testing.T) {
	payloadKeys := []string{"audio_base64", "audiobase64", "audio_base64_format", "audio base64"}
	formatKeys := []string{"audio_format", "audioformat", "audio format"}

	for _, pk := range payloadKeys {
		for _, fk := range formatKeys {
			merged := map[string]string{
				pk:         "QWFhYWFhYWFhYWFh",
				fk:         "wav",
				"language": "en",
			}
			req, _ := ResolveFields(merged)
			if req == nil {
				t.Fatalf("Resolution failed for keys %q/%q", pk, fk)
			}
			if req.AudioBase64 != "QWFhYWFhYWFhYWFh" || req.AudioFormat != "wav" || req.Language != "en" {
				t.Errorf("Wrong resolution for %q/%q: %+v", pk, fk, req)
			}
		}
	}
}

func TestResolveFieldsMissing(t *testing.T) {
	merged := map[string]string{
		"language": "en",
		"junk":     "x",
	}
	req, received := ResolveFields(merged)
	if req != nil {
		t.Fatalf("Expected validation failure, got %+v", req)
	}
	if len(received) != 2 || received[0] != "junk" || received[1] != "language" {
		t.Errorf("Expected sorted received keys, got %v", received)
	}
}

func TestResolveFieldsCaseViaMerge(t *testing.T) {
	body := []byte(`{"AUDIO_BASE64": "QWFhYWFhYWFhYWFh", "Audio_Format": "wav", "LANGUAGE": "ta"}`)
	merged, ok := MergeBody(body, "application/json")
	if !ok {
		t.Fatal("Expected body to parse")
	}
	req, _ := ResolveFields(merged)
	if req == nil {
		t.Fatal("Expected upper-cased spellings to resolve")
	}
	if req.Language != "ta" {
		t.Errorf("Unexpected language %q", req.Language)
	}
}
