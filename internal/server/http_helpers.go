package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"liar-game/internal/game"
	"liar-game/internal/lock"
	"liar-game/internal/wait"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps coordinator errors onto HTTP statuses. Anything
// unrecognized is treated as storage being unavailable.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wait.ErrRoomNotFound),
		errors.Is(err, game.ErrGameNotFound),
		errors.Is(err, game.ErrVoteSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wait.ErrPolicyViolation):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrInvalidGameState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, lock.ErrLockTimeout):
		writeError(w, http.StatusServiceUnavailable, "busy, retry later")
	default:
		writeError(w, http.StatusInternalServerError, "storage unavailable")
	}
}
