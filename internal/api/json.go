package api

import (
	"encoding/json"
	"net/http"
)

// Problem is the error body every planning endpoint returns (RFC 7807).
// Instance carries the request path so a client batching plan submissions
// can tie the error back to the request that caused it.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const problemType = "about:blank"

// writeJSON sets the content type before WriteHeader; encode errors past
// that point cannot change the status line, so they are dropped.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}
