package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Zarux/qtictactoe/pkg/qlearning"
	"github.com/Zarux/qtictactoe/pkg/tictactoe"
)

var (
	gamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qtictactoe_games_total",
		Help: "Finished games by outcome and winning agent",
	}, []string{"outcome", "winner"})

	movesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qtictactoe_moves_total",
		Help: "Selected moves by agent and policy",
	}, []string{"agent", "policy"})

	updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qtictactoe_td_updates_total",
		Help: "TD updates applied by agent",
	}, []string{"agent"})

	tdError = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qtictactoe_td_error_abs",
		Help:    "Absolute TD error per update",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"agent"})

	tableSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "qtictactoe_table_entries",
		Help: "Written entries in each agent's table",
	}, []string{"agent"})

	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qtictactoe_store_operations_total",
		Help: "Knowledge store operations by kind and result",
	}, []string{"op", "result"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qtictactoe_api_requests_total",
		Help: "Agent API requests by route and status class",
	}, []string{"route", "code"})
)

// Agent feeds one agent's engine events into the registry. It satisfies
// qlearning.Observer.
type Agent struct {
	explored prometheus.Counter
	greedy   prometheus.Counter
	updates  prometheus.Counter
	tdError  prometheus.Observer
	size     prometheus.Gauge
}

func ForAgent(name string) *Agent {
	return &Agent{
		explored: movesTotal.WithLabelValues(name, "explore"),
		greedy:   movesTotal.WithLabelValues(name, "greedy"),
		updates:  updatesTotal.WithLabelValues(name),
		tdError:  tdError.WithLabelValues(name),
		size:     tableSize.WithLabelValues(name),
	}
}

func (a *Agent) MoveSelected(explored bool) {
	if explored {
		a.explored.Inc()
		return
	}
	a.greedy.Inc()
}

func (a *Agent) Updated(td float64) {
	a.updates.Inc()
	if td < 0 {
		td = -td
	}
	a.tdError.Observe(td)
}

func (a *Agent) TableSize(n int) {
	a.size.Set(float64(n))
}

func GameFinished(winner string, outcome tictactoe.Outcome) {
	gamesTotal.WithLabelValues(outcome.String(), winner).Inc()
}

// StoreOp counts a store operation. A load that found nothing stored is
// counted as "empty" rather than as an error.
func StoreOp(op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, qlearning.ErrEmptyStore):
		result = "empty"
	case err != nil:
		result = "error"
	}
	storeOps.WithLabelValues(op, result).Inc()
}

func Request(route string, status int) {
	code := "2xx"
	switch {
	case status >= 500:
		code = "5xx"
	case status >= 400:
		code = "4xx"
	}
	requestsTotal.WithLabelValues(route, code).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
