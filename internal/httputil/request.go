package httputil

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/R3E-Network/todo_service/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// DecodePayload reads a JSON or form-encoded body into a Payload. An empty
// body yields an empty Payload so field checks report the missing values.
func DecodePayload(r *http.Request) (validation.Payload, error) {
	payload := validation.Payload{}
	if r.Body == nil {
		return payload, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		r.Body = io.NopCloser(io.LimitReader(r.Body, maxBodyBytes))
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		for key, values := range r.PostForm {
			if len(values) > 0 {
				payload[key] = values[0]
			}
		}
		return payload, nil
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return payload, nil
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}
