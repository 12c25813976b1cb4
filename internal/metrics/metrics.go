package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "deployer_steps_total", Help: "Bootstrap steps by outcome"},
		[]string{"step", "status"},
	)
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "deployer_transactions_total", Help: "Transactions submitted"},
		[]string{"instruction", "status"},
	)
	StatePollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "deployer_state_polls_total", Help: "Exchange state reads while polling"},
		[]string{"outcome"},
	)
	ConfirmSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deployer_confirmation_seconds",
		Help:    "Time from submit to target commitment",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
	})
)

func init() {
	prometheus.MustRegister(StepsTotal, TransactionsTotal, StatePollsTotal, ConfirmSeconds)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
