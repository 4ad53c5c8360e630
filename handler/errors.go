package handler

import (
	"net/http"

	"github.com/DomeLiquid/paylink/core"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{core.ErrLinkNotFound, http.StatusNotFound},
	{core.ErrSpendKeyMissing, http.StatusNotFound},
	{core.ErrAlreadyClaimed, http.StatusConflict},
	{core.ErrDepositAlreadyRecorded, http.StatusConflict},
	{core.ErrSpendKeyAlreadySet, http.StatusConflict},
	{core.ErrDepositMissing, http.StatusBadRequest},
	{core.ErrInvalidAmount, http.StatusBadRequest},
	{core.ErrAmountTooSmall, http.StatusBadRequest},
	{core.ErrUnsupportedAsset, http.StatusBadRequest},
	{core.ErrInvalidRecipient, http.StatusBadRequest},
	{core.ErrInvalidCreator, http.StatusBadRequest},
	{core.ErrInvalidReference, http.StatusBadRequest},
	{core.ErrInsufficientBalance, http.StatusPaymentRequired},
	{core.ErrDecryptionFailed, http.StatusUnprocessableEntity},
	{core.ErrVaultUnavailable, http.StatusServiceUnavailable},
}

func statusOf(err error) int {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var ie *core.InsufficientBalanceError
	if errors.As(err, &ie) {
		body["required"] = ie.Required
		body["available"] = ie.Available
		body["shortfall"] = ie.Shortfall
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
