package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"

	"github.com/Yashi-Piparsaniya/buildathon/internal/models"
)

// fieldAliases maps each logical field to the spellings callers actually
// send. The calling system's payload shape is not fully under our control;
// new spellings go here, not into handler code.
var fieldAliases = map[string][]string{
	"audio_base64": {"audio_base64", "audiobase64", "audio_base64_format", "audio base64"},
	"audio_format": {"audio_format", "audioformat", "audio format"},
	"language":     {"language"},
}

// MergeBody collects key/value pairs from every body encoding that parses.
// JSON and form failures are each swallowed individually; partial data is
// acceptable. Keys come back lowercased and trimmed. ok is false only when
// no source produced anything.
func MergeBody(body []byte, contentType string) (map[string]string, bool) {
	merged := make(map[string]string)
	parsed := false

	// JSON body
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		parsed = true
		for k, v := range obj {
			if s, ok := scalarString(v); ok {
				merged[normalizeKey(k)] = s
			}
		}
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if vals, err := url.ParseQuery(string(body)); err == nil {
			parsed = true
			for k, vs := range vals {
				if len(vs) > 0 {
					merged[normalizeKey(k)] = vs[0]
				}
			}
		}
	case "multipart/form-data":
		if boundary := params["boundary"]; boundary != "" {
			mr := multipart.NewReader(bytes.NewReader(body), boundary)
			if form, err := mr.ReadForm(8 << 20); err == nil {
				parsed = true
				for k, vs := range form.Value {
					if len(vs) > 0 {
						merged[normalizeKey(k)] = vs[0]
					}
				}
				form.RemoveAll()
			}
		}
	}

	return merged, parsed
}

// ResolveFields extracts the canonical request from a merged key map. When a
// required field is missing after alias resolution it returns nil together
// with the keys that were received, so the caller can tell the client what
// actually arrived.
func ResolveFields(merged map[string]string) (*models.DetectionRequest, []string) {
	received := make([]string, 0, len(merged))
	for k := range merged {
		received = append(received, k)
	}
	sort.Strings(received)

	req := &models.DetectionRequest{
		AudioBase64: resolveAlias(merged, "audio_base64"),
		AudioFormat: resolveAlias(merged, "audio_format"),
		Language:    resolveAlias(merged, "language"),
	}
	if req.Language == "" || req.AudioFormat == "" || req.AudioBase64 == "" {
		return nil, received
	}
	return req, received
}

func resolveAlias(merged map[string]string, canonical string) string {
	for _, spelling := range fieldAliases[canonical] {
		if v := merged[spelling]; v != "" {
			return v
		}
	}
	return ""
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64, bool:
		return fmt.Sprint(t), true
	default:
		// вложенные объекты и массивы пропускаем
		return "", false
	}
}
