package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-service/internal/logger"
)

// NewRouter builds the gin engine with request logging, panic recovery and
// the metrics endpoint. A nil gatherer leaves /metrics unregistered.
func NewRouter(h *HTTPHandler, l *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinMiddleware(l), logger.Recovery(l))

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	h.Register(r)
	return r
}
