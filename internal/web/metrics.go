package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bakery_rpc_calls_total",
		Help: "RPC calls issued to the catalog server, by tool or resource.",
	}, []string{"target"})

	rpcFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bakery_rpc_failures_total",
		Help: "RPC calls that failed, by tool or resource.",
	}, []string{"target"})

	chatTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bakery_chat_turns_total",
		Help: "Assistant chat turns served.",
	})

	reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bakery_reconnects_total",
		Help: "User-triggered reconnects to the catalog server.",
	})
)
