package core

import (
	"context"

	"github.com/DomeLiquid/paylink/utils"
	"github.com/facebookgo/clock"
)

type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, record *TransactionRecord) error
		ListTransactionsByLink(ctx context.Context, linkId string) ([]*TransactionRecord, error)
	}

	TransactionRecord struct {
		Id        string          `json:"id" gorm:"primaryKey;size:36"`
		Type      TransactionType `json:"type" gorm:"size:16;not null"`
		LinkId    string          `json:"linkId" gorm:"size:36;not null;index"`
		Amount    uint64          `json:"amount" gorm:"not null"`
		AssetType AssetType       `json:"assetType" gorm:"size:16;not null"`
		// depositor for deposits, recipient for withdrawals
		CounterpartyAddress string            `json:"counterpartyAddress" gorm:"size:64"`
		TransactionHash     string            `json:"transactionHash" gorm:"size:128;not null"`
		Status              TransactionStatus `json:"status" gorm:"size:16;not null"`
		CreatedAt           int64             `json:"createdAt"`
	}

	TransactionType   string
	TransactionStatus string
)

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
)

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

func (t TransactionStatus) String() string {
	switch t {
	case TransactionStatusPending:
		return "pending"
	case TransactionStatusConfirmed:
		return "confirmed"
	case TransactionStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (TransactionRecord) TableName() string { return "transaction_records" }

// NewTransactionRecord derives the record id from its identifying fields, so
// replaying the same record collides on the primary key instead of duplicating.
func NewTransactionRecord(clk clock.Clock, typ TransactionType, link *PaymentLink, amount uint64, counterparty, txHash string, status TransactionStatus) *TransactionRecord {
	return &TransactionRecord{
		Id:                  utils.GenUuidFromStrings(link.Id, "type:"+string(typ), "tx:"+txHash, "status:"+string(status)),
		Type:                typ,
		LinkId:              link.Id,
		Amount:              amount,
		AssetType:           link.AssetType,
		CounterpartyAddress: counterparty,
		TransactionHash:     txHash,
		Status:              status,
		CreatedAt:           clk.Now().Unix(),
	}
}
