package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 对局相关指标
	SessionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_sessions_total",
			Help: "Game sessions by lifecycle event",
		},
		[]string{"event"}, // started / completed / restarted
	)

	AnswerCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_answers_total",
			Help: "Answer submissions by result",
		},
		[]string{"result"}, // correct / wrong / rejected
	)

	PenaltyCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_penalties_total",
			Help: "Penalty modals shown",
		},
	)

	SpectatorGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "game_spectators_connected",
			Help: "Connected spectator websocket clients",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SessionCounter)
	prometheus.MustRegister(AnswerCounter)
	prometheus.MustRegister(PenaltyCounter)
	prometheus.MustRegister(SpectatorGauge)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
