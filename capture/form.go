package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// decodePayload turns a Bot API request body into a field map. go-telegram/bot
// sends multipart forms where strings are written raw and everything else is
// JSON encoded; JSON and urlencoded bodies are accepted for other clients.
func decodePayload(req *http.Request) (map[string]any, error) {
	payload := make(map[string]any)
	if req.Body == nil || req.Body == http.NoBody {
		return payload, nil
	}
	defer req.Body.Close()

	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if len(body) == 0 {
			return payload, nil
		}
		return nil, errors.New("request body without content type")
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type %q: %w", contentType, err)
	}

	switch mediaType {
	case "multipart/form-data":
		return decodeMultipart(req.Body, params["boundary"], payload)
	case "application/json":
		dec := json.NewDecoder(req.Body)
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode json body: %w", err)
		}
		return payload, nil
	case "application/x-www-form-urlencoded":
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("parse form body: %w", err)
		}
		for name := range values {
			payload[name] = decodeFormValue(name, values.Get(name))
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

func decodeMultipart(body io.Reader, boundary string, payload map[string]any) (map[string]any, error) {
	if boundary == "" {
		return nil, errors.New("multipart body without boundary")
	}
	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return payload, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart part: %w", err)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}
		if fileName := part.FileName(); fileName != "" {
			size, err := io.Copy(io.Discard, part)
			part.Close()
			if err != nil {
				return nil, fmt.Errorf("read file part %q: %w", name, err)
			}
			payload[name] = map[string]any{
				"file_name": fileName,
				"size":      size,
			}
			continue
		}

		value, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("read field %q: %w", name, err)
		}
		payload[name] = decodeFormValue(name, string(value))
	}
}

// decodeFormValue restores the value go-telegram/bot wrote for field name.
// Plain strings come back exactly as sent; fields of unknown type are only
// JSON decoded when they hold an object or array.
func decodeFormValue(name, raw string) any {
	switch fieldKinds[name] {
	case fieldRaw:
		return raw
	case fieldJSON:
		if v, ok := decodeJSONValue(raw); ok {
			return v
		}
		return raw
	case fieldDynamic:
		if v, ok := decodeJSONValue(raw); ok {
			switch v.(type) {
			case json.Number, map[string]any, []any:
				return v
			}
		}
		return raw
	default:
		if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
			if v, ok := decodeJSONValue(raw); ok {
				return v
			}
		}
		return raw
	}
}

func decodeJSONValue(raw string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return v, true
}
