package httpclient

import (
	"encoding/json"
	"fmt"
)

// ParseJSON decodes the body whatever the declared content type; feeds are
// not reliable about it.
func ParseJSON(resp *Response) (any, error) {
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var result any
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON (content type %q): %w", resp.ContentType, err)
	}
	return result, nil
}

// IsSuccessStatus returns true if the status code indicates success
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
