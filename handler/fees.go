package handler

import (
	"net/http"
	"strconv"

	"github.com/DomeLiquid/paylink/core"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// amountQuery reads assetType and amount from the query string. amount is in
// base units unless unit=display.
func amountQuery(c *gin.Context) (core.AssetType, uint64, error) {
	assetType, err := core.ParseAssetType(c.Query("assetType"))
	if err != nil {
		return "", 0, err
	}

	raw := c.Query("amount")
	if c.Query("unit") == "display" {
		asset, err := core.GetAsset(assetType)
		if err != nil {
			return "", 0, err
		}
		amount, err := asset.ParseAmount(raw)
		return assetType, amount, err
	}
	amount, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || amount == 0 {
		return "", 0, errors.Wrapf(core.ErrInvalidAmount, "%q", raw)
	}
	return assetType, amount, nil
}

func (h *Handler) quoteFees(c *gin.Context) {
	assetType, amount, err := amountQuery(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	fees := h.ledger.Fees()
	withdraw, err := fees.ComputeFee(amount, assetType)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	deposit, err := fees.ComputeDepositSplit(amount)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdraw": withdraw, "deposit": deposit})
}

func (h *Handler) preflight(c *gin.Context) {
	if h.guard == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "operator account not configured"})
		return
	}
	op, err := core.ParseOperation(c.Query("operation"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	assetType, amount, err := amountQuery(c)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if err := h.guard.Preflight(c.Request.Context(), amount, assetType, op); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
