package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/DomeLiquid/paylink/chain"
	"github.com/DomeLiquid/paylink/core"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type (
	CreateLinkRequest struct {
		// base units of the asset
		Amount         uint64 `json:"amount"`
		AssetType      string `json:"assetType" binding:"required"`
		CreatorAddress string `json:"creatorAddress"`
		// base64, optional
		SpendKey string `json:"spendKey"`
	}

	DepositRequest struct {
		DepositTransactionRef string `json:"depositTransactionRef" binding:"required"`
		DepositorAddress      string `json:"depositorAddress"`
	}

	ClaimRequest struct {
		RecipientAddress       string `json:"recipientAddress" binding:"required"`
		WithdrawTransactionRef string `json:"withdrawTransactionRef" binding:"required"`
	}

	SpendKeyRequest struct {
		SpendKey string `json:"spendKey" binding:"required"`
	}
)

func (h *Handler) createLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	assetType, err := core.ParseAssetType(req.AssetType)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	if req.CreatorAddress != "" {
		if err := chain.ValidateAddress(req.CreatorAddress); err != nil {
			h.abortWithError(c, errors.Wrapf(core.ErrInvalidCreator, "%q", req.CreatorAddress))
			return
		}
	}
	var spendKey []byte
	if req.SpendKey != "" {
		if spendKey, err = base64.StdEncoding.DecodeString(req.SpendKey); err != nil {
			badRequest(c, "spendKey must be base64")
			return
		}
	}

	link, err := h.ledger.Create(c.Request.Context(), core.CreateLinkParams{
		Amount:         req.Amount,
		AssetType:      assetType,
		CreatorAddress: req.CreatorAddress,
		SpendKey:       spendKey,
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"linkId": link.Id})
}

func (h *Handler) getLink(c *gin.Context) {
	link, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, link.Public())
}

func (h *Handler) recordDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "depositTransactionRef is required")
		return
	}
	link, err := h.ledger.RecordDeposit(c.Request.Context(), c.Param("id"), req.DepositTransactionRef, req.DepositorAddress)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, link.Public())
}

func (h *Handler) claimLink(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "recipientAddress and withdrawTransactionRef are required")
		return
	}
	if err := chain.ValidateAddress(req.RecipientAddress); err != nil {
		h.abortWithError(c, err)
		return
	}
	result, err := h.ledger.Claim(c.Request.Context(), c.Param("id"), req.RecipientAddress, req.WithdrawTransactionRef)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"link":   result.Link.Public(),
		"fee":    result.Fee,
		"record": result.Record,
	})
}

func (h *Handler) listTransactions(c *gin.Context) {
	records, err := h.ledger.Transactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": records})
}

func (h *Handler) listLinks(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}
	links, err := h.ledger.ListByCreator(c.Request.Context(), c.Query("creator"), limit)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	public := make([]*core.PaymentLink, 0, len(links))
	for _, link := range links {
		public = append(public, link.Public())
	}
	c.JSON(http.StatusOK, gin.H{"links": public})
}

func (h *Handler) attachSpendKey(c *gin.Context) {
	var req SpendKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "spendKey is required")
		return
	}
	plaintext, err := base64.StdEncoding.DecodeString(req.SpendKey)
	if err != nil {
		badRequest(c, "spendKey must be base64")
		return
	}
	if err := h.ledger.AttachSpendKey(c.Request.Context(), c.Param("id"), plaintext); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) revealSpendKey(c *gin.Context) {
	plaintext, err := h.ledger.RevealSpendKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spendKey": base64.StdEncoding.EncodeToString(plaintext)})
}

func (h *Handler) deleteLink(c *gin.Context) {
	id := c.Param("id")
	if err := h.ledger.Delete(c.Request.Context(), id); err != nil {
		h.abortWithError(c, err)
		return
	}
	h.log.Info().Str("link", id).Str("operator", c.GetString(subjectKey)).Msg("link deleted by operator")
	c.Status(http.StatusNoContent)
}
