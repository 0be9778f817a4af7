package core

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_clients",
		Help: "Number of currently connected clients",
	})

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_commands_total",
		Help: "Total commands dispatched by type",
	}, []string{"type"})

	DispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_dispatch_seconds",
		Help:    "Time to dispatch each command type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	PeersEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_peers_evicted_total",
		Help: "Dead peers evicted from the registry during delivery",
	})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(PeersEvicted)
}
