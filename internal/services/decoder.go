package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// MaxDecodedBytes is a cost-control limit, not a correctness one:
	// anything larger is rejected before inference is even attempted.
	MaxDecodedBytes = 3_000_000

	// minEncodedLen: anything shorter is obviously not audio.
	minEncodedLen = 10
)

var (
	ErrPayloadTooSmall = errors.New("audio payload too small to be audio")
	ErrPayloadTooLarge = errors.New("audio payload exceeds size limit")
	ErrInvalidEncoding = errors.New("audio payload is not valid base64")
)

// CleanBase64 strips the whitespace that copy-pasted payloads pick up.
func CleanBase64(s string) string {
	return strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(s)
}

// DecodeBase64Payload turns a base64 string into audio bytes, enforcing the
// plausibility and size limits. Callers treat any error as "audio unusable"
// and fall back; nothing here reaches the HTTP layer.
func DecodeBase64Payload(s string) ([]byte, error) {
	clean := CleanBase64(s)
	if len(clean) < minEncodedLen {
		return nil, ErrPayloadTooSmall
	}
	if len(clean) > base64.StdEncoding.EncodedLen(MaxDecodedBytes) {
		return nil, ErrPayloadTooLarge
	}

	decoded, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(decoded) > MaxDecodedBytes {
		return nil, ErrPayloadTooLarge
	}
	return decoded, nil
}

// ReadUpload drains a multipart upload stream under the same size limit.
func ReadUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDecodedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("could not read upload: %w", err)
	}
	if len(data) > MaxDecodedBytes {
		return nil, ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return nil, ErrPayloadTooSmall
	}
	return data, nil
}
