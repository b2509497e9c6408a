package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// bridge side
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wordgames_bridge_connections_active",
			Help: "Bridge connections whose worker is running",
		},
	)
	ConnectFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wordgames_bridge_connect_failures_total",
			Help: "Connect attempts that failed to establish a socket",
		},
	)
	FramesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wordgames_bridge_frames_sent_total",
			Help: "Outbound frames written to the socket",
		},
	)
	FramesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wordgames_bridge_frames_received_total",
			Help: "Inbound frames read from the socket",
		},
	)
	TransportErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wordgames_bridge_transport_errors_total",
			Help: "Connections ended by a socket failure",
		},
	)
	ProtocolNotices = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wordgames_protocol_notices_total",
			Help: "Inbound frames that could not be decoded",
		},
	)

	// sandbox server side
	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wordgames_server_rooms_active",
			Help: "Rooms currently registered in the hub",
		},
	)
	ClientsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wordgames_server_clients_connected",
			Help: "Websocket clients attached to a room",
		},
	)
	RoundsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordgames_server_rounds_started_total",
			Help: "Rounds started per game",
		},
		[]string{"game"},
	)
	CorrectGuesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wordgames_server_correct_guesses_total",
			Help: "Rounds ended by a correct guess",
		},
		[]string{"game"},
	)
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		ConnectFailures,
		FramesSent,
		FramesReceived,
		TransportErrors,
		ProtocolNotices,
		RoomsActive,
		ClientsConnected,
		RoundsStarted,
		CorrectGuesses,
	)
}
