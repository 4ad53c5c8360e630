package core

import (
	"context"

	"github.com/DomeLiquid/paylink/utils"
	"github.com/pkg/errors"
)

type ClaimResult struct {
	Link   *PaymentLink       `json:"link"`
	Fee    FeeBreakdown       `json:"fee"`
	Record *TransactionRecord `json:"record"`
}

// Claim records that the externally executed withdrawal of a deposited link
// succeeded. The claimed flag is flipped by a single conditional write, so for
// any link at most one caller ever gets a result; every other caller gets
// ErrAlreadyClaimed, which is final and must not be retried.
func (l *Ledger) Claim(ctx context.Context, id, recipient, withdrawRef string) (*ClaimResult, error) {
	recipient = utils.NormalizeRef(recipient)
	withdrawRef = utils.NormalizeRef(withdrawRef)
	if recipient == "" {
		return nil, ErrInvalidRecipient
	}
	if withdrawRef == "" {
		return nil, ErrInvalidReference
	}

	link, err := l.store.GetLink(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.Claimed {
		return nil, ErrAlreadyClaimed
	}
	if link.State() != LinkStateDeposited {
		return nil, ErrDepositMissing
	}

	// the withdrawal already happened on chain, so a schedule change since
	// creation must not block recording it
	fee := link.Fee()

	now := l.clk.Now().Unix()
	var record *TransactionRecord
	err = l.store.Transact(ctx, func(s Store) error {
		won, err := s.MarkClaimed(ctx, id, recipient, withdrawRef, now)
		if err != nil {
			return err
		}
		if !won {
			return ErrAlreadyClaimed
		}

		record = NewTransactionRecord(l.clk, TransactionTypeWithdraw, link, fee.NetAmount,
			recipient, withdrawRef, TransactionStatusConfirmed)
		return s.CreateTransaction(ctx, record)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			l.log.Warn().Str("link", id).Str("recipient", recipient).Msg("claim lost the race")
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	link.Claimed = true
	link.ClaimedBy = &recipient
	link.WithdrawTransactionRef = &withdrawRef
	link.UpdatedAt = now

	l.log.Info().
		Str("link", id).
		Str("recipient", recipient).
		Uint64("net", fee.NetAmount).
		Uint64("fee", fee.TotalFee).
		Msg("payment link claimed")
	return &ClaimResult{Link: link, Fee: fee, Record: record}, nil
}
