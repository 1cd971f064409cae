package lobby

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"coup-lite/coup"
)

const defaultBaseURL = "http://localhost:8080"

// HTTPHandler serves the read-only lobby API: open matches, public
// match summaries and QR join links.
type HTTPHandler struct {
	lobby   *Lobby
	baseURL string
}

type matchSummary struct {
	Code       string     `json:"code"`
	Phase      coup.Phase `json:"phase"`
	Players    int        `json:"players"`
	MaxPlayers int        `json:"maxPlayers"`
	Joinable   bool       `json:"joinable"`
}

func NewHTTPHandler(l *Lobby) *HTTPHandler {
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPHandler{lobby: l, baseURL: baseURL}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/matches", h.handleList)
	mux.HandleFunc("/api/matches/info", h.handleInfo)
	mux.HandleFunc("/api/matches/qr", h.handleQR)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summaries := make([]matchSummary, 0)
	for _, code := range h.lobby.ListMatches() {
		m := h.lobby.GetMatch(code)
		if m == nil {
			continue
		}
		summaries = append(summaries, summarize(m.Snapshot()))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *HTTPHandler) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	code := normalizeCode(r.URL.Query().Get("code"))
	if code == "" {
		httpError(w, http.StatusBadRequest, "missing code")
		return
	}

	if m := h.lobby.GetMatch(code); m != nil {
		writeJSON(w, http.StatusOK, summarize(m.Snapshot()))
		return
	}
	if doc, ok := h.lobby.ArchivedMatch(code); ok {
		writeJSON(w, http.StatusOK, matchSummary{
			Code:       doc.Code,
			Phase:      doc.Phase,
			Players:    len(doc.Players),
			MaxPlayers: doc.Settings.MaxPlayers,
		})
		return
	}
	httpError(w, http.StatusNotFound, "match not found")
}

// handleQR renders a QR code pointing at the join link, for sharing a
// match across the table.
func (h *HTTPHandler) handleQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	code := normalizeCode(r.URL.Query().Get("code"))
	if code == "" {
		httpError(w, http.StatusBadRequest, "missing code")
		return
	}
	if h.lobby.GetMatch(code) == nil {
		httpError(w, http.StatusNotFound, "match not found")
		return
	}

	joinURL := fmt.Sprintf("%s/join/%s", h.baseURL, code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "qr encoding failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func summarize(snap coup.Snapshot) matchSummary {
	return matchSummary{
		Code:       snap.Code,
		Phase:      snap.Phase,
		Players:    len(snap.Players),
		MaxPlayers: snap.Settings.MaxPlayers,
		Joinable:   snap.Phase == coup.PhaseLobby && len(snap.Players) < snap.Settings.MaxPlayers,
	}
}

func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
