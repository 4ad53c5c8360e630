package handler

import (
	"context"
	"net/http"

	"github.com/DomeLiquid/paylink/core"
	"github.com/gin-gonic/gin"
)

type (
	Pinger interface {
		Ping(ctx context.Context) error
	}

	Handler struct {
		ledger *core.Ledger
		guard  *core.OperatorGuard
		pinger Pinger
		auth   *Auth
		log    core.Log
	}

	OptFunc func(h *Handler)
)

func WithOperatorGuard(guard *core.OperatorGuard) OptFunc {
	return func(h *Handler) {
		h.guard = guard
	}
}

func WithPinger(p Pinger) OptFunc {
	return func(h *Handler) {
		h.pinger = p
	}
}

// WithAuth enables the /admin routes.
func WithAuth(a *Auth) OptFunc {
	return func(h *Handler) {
		h.auth = a
	}
}

func WithLog(log core.Log) OptFunc {
	return func(h *Handler) {
		h.log = log
	}
}

func New(ledger *core.Ledger, opts ...OptFunc) *Handler {
	h := &Handler{ledger: ledger, log: core.NopLog()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.healthz)
	r.GET("/readyz", h.readyz)

	r.GET("/fees", h.quoteFees)
	r.GET("/preflight", h.preflight)

	r.POST("/link", h.createLink)
	r.GET("/link/:id", h.getLink)
	r.POST("/link/:id/deposit", h.recordDeposit)
	r.POST("/link/:id/claim", h.claimLink)
	r.GET("/link/:id/transactions", h.listTransactions)
	r.POST("/link/:id/spend-key", h.attachSpendKey)
	r.GET("/link/:id/spend-key", h.revealSpendKey)
	r.GET("/links", h.listLinks)

	if h.auth != nil {
		admin := r.Group("/admin", h.auth.Middleware())
		admin.DELETE("/link/:id", h.deleteLink)
	}
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) readyz(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("readiness check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
