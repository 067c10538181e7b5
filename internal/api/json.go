package api

import (
	"encoding/json"
	"net/http"
)

// Problem represents an RFC7807 problem details response body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// problemType maps a status code onto the service error taxonomy.
func problemType(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "rate-limited"
	case status == http.StatusNotFound:
		return "not-found"
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return "forbidden"
	case status == http.StatusServiceUnavailable:
		return "not-ready"
	case status >= 400 && status < 500:
		return "invalid-input"
	}
	return "internal"
}

// writeProblem emits an RFC7807 body; every error path goes through here so
// clients see one error shape.
func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     problemType(status),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}
