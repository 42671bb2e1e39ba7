package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HTTPMethod is one of the request methods an endpoint can use
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodPatch  HTTPMethod = "PATCH"
	MethodDelete HTTPMethod = "DELETE"
)

// Methods lists every supported method in display order
var Methods = []HTTPMethod{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// ParseMethod converts a user-supplied method name, ignoring case
func ParseMethod(s string) (HTTPMethod, error) {
	m := HTTPMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported HTTP method: %q", s)
	}
	return m, nil
}

// Valid reports whether m is a supported method
func (m HTTPMethod) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

func (m HTTPMethod) String() string {
	return string(m)
}

// UnmarshalJSON rejects methods outside the supported set
func (m *HTTPMethod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed := HTTPMethod(s)
	if !parsed.Valid() {
		return fmt.Errorf("unsupported HTTP method: %q", s)
	}
	*m = parsed
	return nil
}

// ResponseRecord is one received response, kept in an endpoint's history
type ResponseRecord struct {
	ID         string    `json:"id"`
	Payload    []byte    `json:"payload"`
	StatusCode int       `json:"statusCode"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Size returns the payload length in bytes
func (r ResponseRecord) Size() int {
	return len(r.Payload)
}

func (r ResponseRecord) clone() ResponseRecord {
	c := r
	if r.Payload != nil {
		c.Payload = append([]byte{}, r.Payload...)
	}
	return c
}
