package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestCleanBase64(t *testing.T) {
	in := "QW Fh\nYW\r\nFh "
	if got := CleanBase64(in); got != "QWFhYWFh" {
		t.Errorf("CleanBase64(%q) = %q", in, got)
	}
}

func TestDecodeWhitespaceTolerance(t *testing.T) {
	raw := []byte("some audio bytes here")
	encoded := base64.StdEncoding.EncodeToString(raw)
	// копипаста ломает строки
	mangled := encoded[:8] + "\n" + encoded[8:16] + "\r\n " + encoded[16:]

	decoded, err := DecodeBase64Payload(mangled)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, raw) {
		t.Errorf("Got %q, want %q", decoded, raw)
	}
}

func TestDecodeInvalidEncoding(t *testing.T) {
	_, err := DecodeBase64Payload("!!!not-base64-at-all!!!")
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("Expected ErrInvalidEncoding, got %v", err)
	}
}

func TestDecodeTooSmall(t *testing.T) {
	_, err := DecodeBase64Payload("QQ==")
	if !errors.Is(err, ErrPayloadTooSmall) {
		t.Errorf("Expected ErrPayloadTooSmall, got %v", err)
	}
}

func TestDecodeSizeEnforcement(t *testing.T) {
	over := base64.StdEncoding.EncodeToString(make([]byte, MaxDecodedBytes+1))
	if _, err := DecodeBase64Payload(over); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge for %d bytes, got %v", MaxDecodedBytes+1, err)
	}

	under := base64.StdEncoding.EncodeToString(make([]byte, MaxDecodedBytes-1))
	decoded, err := DecodeBase64Payload(under)
	if err != nil {
		t.Fatalf("Expected %d bytes to be accepted, got %v", MaxDecodedBytes-1, err)
	}
	if len(decoded) != MaxDecodedBytes-1 {
		t.Errorf("Decoded %d bytes, want %d", len(decoded), MaxDecodedBytes-1)
	}

	exact := base64.StdEncoding.EncodeToString(make([]byte, MaxDecodedBytes))
	if _, err := DecodeBase64Payload(exact); err != nil {
		t.Errorf("Expected %d bytes to be accepted, got %v", MaxDecodedBytes, err)
	}
}

func TestReadUpload(t *testing.T) {
	data, err := ReadUpload(strings.NewReader("RIFF fake wav content"))
	if err != nil {
		t.Fatalf("ReadUpload failed: %v", err)
	}
	if string(data) != "RIFF fake wav content" {
		t.Errorf("Got %q", data)
	}

	if _, err := ReadUpload(strings.NewReader("")); !errors.Is(err, ErrPayloadTooSmall) {
		t.Errorf("Expected ErrPayloadTooSmall for empty upload, got %v", err)
	}

	if _, err := ReadUpload(bytes.NewReader(make([]byte, MaxDecodedBytes+1))); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}
