package httputil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v with the given status. Encoding errors are dropped;
// the status line is already on the wire by then.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess answers 200 with {"status": "ok"}.
func WriteSuccess(w http.ResponseWriter) {
	WriteSuccessWithData(w, nil)
}

// WriteSuccessWithData answers 200 with {"status": "ok"} merged with data.
// A "status" key in data is ignored.
func WriteSuccessWithData(w http.ResponseWriter, data map[string]any) {
	body := make(map[string]any, len(data)+1)
	for k, v := range data {
		body[k] = v
	}
	body["status"] = "ok"
	WriteJSON(w, http.StatusOK, body)
}
