package agentapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Zarux/qtictactoe/internal/logger"
	"github.com/Zarux/qtictactoe/internal/metrics"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

type httpHandler struct {
	svc *Service
}

func HTTPHandler(s *Service) http.Handler {
	h := &httpHandler{
		svc: s,
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /moves", h.HandleMove)
	mux.HandleFunc("GET /qvalues", h.HandleQValues)
	mux.HandleFunc("GET /healthz", h.HandleHealth)

	return mux
}

type moveRequest struct {
	Board  string `json:"board"`
	Player string `json:"player"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *httpHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, "/moves", http.StatusBadRequest, err)
		return
	}

	state, p, err := parseQuery(req.Board, req.Player)
	if err != nil {
		h.writeError(w, r, "/moves", http.StatusBadRequest, err)
		return
	}

	res, err := h.svc.Move(ctx, state, p)
	if err != nil {
		h.writeError(w, r, "/moves", statusFor(err), err)
		return
	}

	log.Debug("agent moved", "board", req.Board, "player", p.Mark(), "move", res.Move.Action)
	h.writeJSON(w, "/moves", http.StatusOK, res)
}

type qvaluesResponse struct {
	Board  string        `json:"board"`
	Player string        `json:"player"`
	Values []ActionValue `json:"values"`
}

func (h *httpHandler) HandleQValues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state, p, err := parseQuery(q.Get("board"), q.Get("player"))
	if err != nil {
		h.writeError(w, r, "/qvalues", http.StatusBadRequest, err)
		return
	}

	values, err := h.svc.QValues(r.Context(), state, p)
	if err != nil {
		h.writeError(w, r, "/qvalues", statusFor(err), err)
		return
	}

	h.writeJSON(w, "/qvalues", http.StatusOK, qvaluesResponse{
		Board:  state.String(),
		Player: p.Mark(),
		Values: values,
	})
}

func (h *httpHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "/healthz", http.StatusOK, map[string]string{"status": "ok"})
}

func parseQuery(board, player string) (tictactoe.State, tictactoe.Player, error) {
	state, err := tictactoe.ParseState(board)
	if err != nil {
		return state, tictactoe.Empty, err
	}

	p, err := ParsePlayer(player)
	if err != nil {
		return state, tictactoe.Empty, err
	}

	return state, p, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrImpossible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoLearner):
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

func (h *httpHandler) writeError(w http.ResponseWriter, r *http.Request, route string, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "route", route, "error", err.Error())
	}

	h.writeJSON(w, route, status, errorResponse{Error: err.Error()})
}

func (h *httpHandler) writeJSON(w http.ResponseWriter, route string, status int, v any) {
	metrics.Request(route, status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
