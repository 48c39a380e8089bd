package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// connectionsGauge tracks registered sockets per route.
	connectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_connections",
			Help: "Number of live chat connections",
		},
		[]string{"route"},
	)

	// messagesTotal counts inbound chat messages by what happened to them.
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of inbound chat messages by outcome",
		},
		[]string{"route", "outcome"},
	)
)

const (
	outcomeDelivered = "delivered"
	outcomeIgnored   = "ignored"
	outcomeInvalid   = "invalid"
	outcomeDropped   = "dropped"
	outcomeStoreDown = "store_down"
)
