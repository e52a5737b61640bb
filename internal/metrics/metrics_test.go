package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

func TestAgentObserver(t *testing.T) {
	a := ForAgent("metrics-test")

	a.MoveSelected(true)
	a.MoveSelected(false)
	a.MoveSelected(false)
	a.Updated(-0.5)
	a.TableSize(12)

	require.Equal(t, 1.0, testutil.ToFloat64(movesTotal.WithLabelValues("metrics-test", "explore")))
	require.Equal(t, 2.0, testutil.ToFloat64(movesTotal.WithLabelValues("metrics-test", "greedy")))
	require.Equal(t, 1.0, testutil.ToFloat64(updatesTotal.WithLabelValues("metrics-test")))
	require.Equal(t, 12.0, testutil.ToFloat64(tableSize.WithLabelValues("metrics-test")))
}

func TestCounters(t *testing.T) {
	GameFinished("", tictactoe.Draw)
	require.Equal(t, 1.0, testutil.ToFloat64(gamesTotal.WithLabelValues("draw", "")))

	StoreOp("save", errors.New("boom"))
	require.Equal(t, 1.0, testutil.ToFloat64(storeOps.WithLabelValues("save", "error")))

	StoreOp("load", fmt.Errorf("load table %q: %w", "p", qlearning.ErrEmptyStore))
	require.Equal(t, 1.0, testutil.ToFloat64(storeOps.WithLabelValues("load", "empty")))
	require.Zero(t, testutil.ToFloat64(storeOps.WithLabelValues("load", "error")))

	Request("/moves", http.StatusBadRequest)
	require.Equal(t, 1.0, testutil.ToFloat64(requestsTotal.WithLabelValues("/moves", "4xx")))
}

func TestHandler(t *testing.T) {
	GameFinished("x", tictactoe.Win)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "qtictactoe_games_total")
}
