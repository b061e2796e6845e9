package handler

import (
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	restTypes "github.com/robalyx/hivesync/internal/rest/types"
)

func writeJSON(w http.ResponseWriter, status int, value any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return sonic.ConfigDefault.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, restTypes.ErrorResponse{Error: message})
}

// intParam reads a positive integer query parameter, returning def when it is absent.
func intParam(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}

	return v, true
}
