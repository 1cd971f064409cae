package stats

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type HTTPHandler struct {
	service Service
}

func NewHTTPHandler(service Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats/player", h.handlePlayer)
	mux.HandleFunc("/api/stats/leaderboard", h.handleLeaderboard)
}

func (h *HTTPHandler) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}
	st, err := h.service.PlayerStats(playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *HTTPHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	board, err := h.service.Leaderboard(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard failed")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
