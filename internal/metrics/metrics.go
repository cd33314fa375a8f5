package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Session outcome metrics
	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focusd_sessions_completed_total",
			Help: "Sessions that ran to natural expiry",
		},
		[]string{"kind"},
	)

	SessionsInterrupted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focusd_sessions_interrupted_total",
			Help: "Sessions stopped before expiry",
		},
		[]string{"kind"},
	)

	SessionSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focusd_session_seconds_total",
			Help: "Elapsed session time in seconds",
		},
		[]string{"kind"},
	)

	// Clock metrics
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "focusd_ticks_total",
			Help: "Countdown ticks emitted",
		},
	)

	SessionRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "focusd_session_remaining_seconds",
			Help: "Remaining time of the active session in seconds",
		},
	)

	// Persistence metrics
	RecordWriteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "focusd_record_write_errors_total",
			Help: "Session record persistence failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsCompleted,
		SessionsInterrupted,
		SessionSeconds,
		TicksTotal,
		SessionRemaining,
		RecordWriteErrors,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
