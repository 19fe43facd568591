package httpapi

import (
	"encoding/json"
	"net/http"
)

const timeoutDetail = "Request Timeout"

type detailResponse struct {
	Detail any `json:"detail"`
}

// fieldError - элемент detail при 422, в том же виде, что отдаёт FastAPI
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, detailResponse{Detail: detail})
}
