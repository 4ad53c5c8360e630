package core

import (
	"context"

	"github.com/DomeLiquid/paylink/utils"
	"github.com/facebookgo/clock"
	"github.com/pkg/errors"
)

type (
	// Store is the persistence collaborator of the ledger. Transact runs fn
	// inside a single database transaction.
	Store interface {
		LinkStore
		TransactionStore
		Transact(ctx context.Context, fn func(s Store) error) error
	}

	Ledger struct {
		clk   clock.Clock
		store Store
		fees  *FeeEngine
		vault KeyVault
		log   Log
	}

	CreateLinkParams struct {
		Amount         uint64
		AssetType      AssetType
		CreatorAddress string
		// sealed with the new link id and dropped, never stored in plaintext
		SpendKey []byte
	}
)

// NewLedger wires the ledger. vault may be nil when non-custodial claiming is
// not offered.
func NewLedger(clk clock.Clock, store Store, fees *FeeEngine, vault KeyVault, log Log) *Ledger {
	if fees == nil {
		fees = DefaultFeeEngine()
	}
	if log == nil {
		log = NopLog()
	}
	return &Ledger{clk: clk, store: store, fees: fees, vault: vault, log: log}
}

func (l *Ledger) Fees() *FeeEngine {
	return l.fees
}

func (l *Ledger) Create(ctx context.Context, params CreateLinkParams) (*PaymentLink, error) {
	if params.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := GetAsset(params.AssetType); err != nil {
		return nil, err
	}
	// a link whose fees swallow the whole amount could never be claimed
	fee, err := l.fees.ComputeFee(params.Amount, params.AssetType)
	if err != nil {
		return nil, err
	}

	link := NewPaymentLink(l.clk, params.Amount, params.AssetType,
		WithCreator(params.CreatorAddress), WithFee(fee))
	if len(params.SpendKey) > 0 {
		if err := l.seal(link, params.SpendKey); err != nil {
			return nil, err
		}
	}

	if err := l.store.CreateLink(ctx, link); err != nil {
		return nil, errors.Wrap(err, "create link")
	}

	l.log.Info().
		Str("link", link.Id).
		Str("asset", string(link.AssetType)).
		Uint64("amount", link.Amount).
		Bool("spendKey", link.HasSpendKey()).
		Msg("payment link created")
	return link, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (*PaymentLink, error) {
	return l.store.GetLink(ctx, id)
}

// RecordDeposit attaches the deposit proof. Replaying the ref already on the
// link is a no-op; a different ref is rejected.
func (l *Ledger) RecordDeposit(ctx context.Context, id, ref, depositor string) (*PaymentLink, error) {
	ref = utils.NormalizeRef(ref)
	if ref == "" {
		return nil, ErrInvalidReference
	}

	var result *PaymentLink
	err := l.store.Transact(ctx, func(s Store) error {
		link, err := s.GetLink(ctx, id)
		if err != nil {
			return err
		}
		if link.DepositTransactionRef != nil {
			if *link.DepositTransactionRef == ref {
				result = link
				return nil
			}
			return ErrDepositAlreadyRecorded
		}

		now := l.clk.Now().Unix()
		applied, err := s.AttachDeposit(ctx, id, ref, now)
		if err != nil {
			return err
		}
		if !applied {
			current, err := s.GetLink(ctx, id)
			if err != nil {
				return err
			}
			if StringValue(current.DepositTransactionRef) == ref {
				result = current
				return nil
			}
			return ErrDepositAlreadyRecorded
		}

		record := NewTransactionRecord(l.clk, TransactionTypeDeposit, link, link.Amount,
			utils.NormalizeRef(depositor), ref, TransactionStatusConfirmed)
		if err := s.CreateTransaction(ctx, record); err != nil {
			return err
		}

		link.DepositTransactionRef = &ref
		link.UpdatedAt = now
		result = link
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info().Str("link", id).Str("ref", ref).Msg("deposit recorded")
	return result, nil
}

func (l *Ledger) AttachSpendKey(ctx context.Context, id string, plaintext []byte) error {
	if len(plaintext) == 0 {
		return ErrSpendKeyMissing
	}
	link, err := l.store.GetLink(ctx, id)
	if err != nil {
		return err
	}
	if link.HasSpendKey() {
		return ErrSpendKeyAlreadySet
	}
	if err := l.seal(link, plaintext); err != nil {
		return err
	}
	sealed, _ := link.SealedKey()

	applied, err := l.store.AttachSpendKey(ctx, id, sealed, l.clk.Now().Unix())
	if err != nil {
		return err
	}
	if !applied {
		return ErrSpendKeyAlreadySet
	}
	return nil
}

// RevealSpendKey opens the sealed spend key with the link id. Absence and
// corruption are reported as different errors.
func (l *Ledger) RevealSpendKey(ctx context.Context, id string) ([]byte, error) {
	if l.vault == nil {
		return nil, ErrVaultUnavailable
	}
	link, err := l.store.GetLink(ctx, id)
	if err != nil {
		return nil, err
	}
	sealed, ok := link.SealedKey()
	if !ok {
		return nil, ErrSpendKeyMissing
	}
	plaintext, err := l.vault.Decrypt(sealed, link.Id)
	if err != nil {
		l.log.Warn().Str("link", id).Err(err).Msg("spend key did not open")
		return nil, err
	}
	return plaintext, nil
}

func (l *Ledger) ListByCreator(ctx context.Context, creator string, limit int) ([]*PaymentLink, error) {
	creator = utils.NormalizeRef(creator)
	if creator == "" {
		return nil, ErrInvalidCreator
	}
	if limit <= 0 {
		limit = DEFAULT_LIST_LIMIT
	}
	if limit > MAX_LIST_LIMIT {
		limit = MAX_LIST_LIMIT
	}
	return l.store.ListLinksByCreator(ctx, creator, limit)
}

func (l *Ledger) Transactions(ctx context.Context, id string) ([]*TransactionRecord, error) {
	if _, err := l.store.GetLink(ctx, id); err != nil {
		return nil, err
	}
	return l.store.ListTransactionsByLink(ctx, id)
}

// Delete removes the link together with its transaction records.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.store.DeleteLink(ctx, id); err != nil {
		return err
	}
	l.log.Info().Str("link", id).Msg("payment link deleted")
	return nil
}

func (l *Ledger) seal(link *PaymentLink, plaintext []byte) error {
	if l.vault == nil {
		return ErrVaultUnavailable
	}
	sealed, err := l.vault.Encrypt(plaintext, link.Id)
	if err != nil {
		return errors.Wrap(err, "seal spend key")
	}
	link.EncryptedSpendKey = StringPtr(sealed.Ciphertext)
	link.EncryptionIv = StringPtr(sealed.IV)
	link.EncryptionSalt = StringPtr(sealed.Salt)
	return nil
}
