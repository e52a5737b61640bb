package agentapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/internal/logger"
	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

func newServer(t *testing.T) (*httptest.Server, *qlearning.Engine) {
	t.Helper()
	o, err := qlearning.New(qlearning.WithExplorationRate(0))
	require.NoError(t, err)

	base := logger.New(logger.WithWriter(&bytes.Buffer{}))
	h := logger.NewMiddleware(base)(HTTPHandler(New(nil, o)))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return srv, o
}

func postMove(t *testing.T, srv *httptest.Server, board, player string) *http.Response {
	t.Helper()
	body, err := json.Marshal(moveRequest{Board: board, Player: player})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/moves", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestMove(t *testing.T) {
	srv, o := newServer(t)

	state, err := tictactoe.ParseState("XX..O....")
	require.NoError(t, err)
	for _, a := range state.LegalMoves() {
		o.Table().Set(state, a, 0.2)
	}
	o.Table().Set(state, 2, 0.8)

	resp := postMove(t, srv, "XX..O....", "O")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(logger.RequestIDHeader))

	var res MoveResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Equal(t, 2, res.Move.Action)
	require.Equal(t, 0.8, res.Move.Value)
	require.Equal(t, 2, res.Move.X)
	require.Equal(t, 0, res.Move.Y)
	require.Len(t, res.Values, 6)
	require.Equal(t, "XXO.O....", res.Board)
	require.Equal(t, "ongoing", res.Outcome)
	require.False(t, o.HasTrace())
}

func TestMoveWins(t *testing.T) {
	srv, o := newServer(t)

	state, err := tictactoe.ParseState("OO.XX.X..")
	require.NoError(t, err)
	for _, a := range state.LegalMoves() {
		o.Table().Set(state, a, 0)
	}
	o.Table().Set(state, 2, 1)

	resp := postMove(t, srv, "OO.XX.X..", "O")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res MoveResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Equal(t, "win", res.Outcome)
	require.Equal(t, "O", res.Winner)
}

func TestMoveErrors(t *testing.T) {
	srv, _ := newServer(t)

	tests := []struct {
		name   string
		board  string
		player string
		status int
	}{
		{"bad board", "XX", "O", http.StatusBadRequest},
		{"bad player", ".........", "Z", http.StatusBadRequest},
		{"no agent for X", ".........", "X", http.StatusNotFound},
		{"finished game", "XXXOO....", "O", http.StatusUnprocessableEntity},
		{"impossible counts", "XXX......", "O", http.StatusUnprocessableEntity},
		{"not on move", "OO..X....", "O", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postMove(t, srv, tt.board, tt.player)
			require.Equal(t, tt.status, resp.StatusCode)

			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			require.NotEmpty(t, e.Error)
		})
	}

	resp, err := http.Post(srv.URL+"/moves", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQValues(t *testing.T) {
	srv, o := newServer(t)

	state, err := tictactoe.ParseState("X........")
	require.NoError(t, err)
	o.Table().Set(state, 4, 1.09)

	resp, err := http.Get(srv.URL + "/qvalues?board=X........&player=O")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res qvaluesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Equal(t, "O", res.Player)
	require.Len(t, res.Values, 8)
	for _, v := range res.Values {
		if v.Action == 4 {
			require.Equal(t, 1.09, v.Value)
		} else {
			require.Equal(t, 1.0, v.Value, "unseen actions read the default")
		}
	}
	require.Equal(t, 1, o.TableSize(), "queries never write")
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
