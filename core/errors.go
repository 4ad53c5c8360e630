package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountTooSmall   = errors.New("amount too small to cover fees")
	ErrUnsupportedAsset = errors.New("unsupported asset type")
	ErrInvalidRecipient = errors.New("invalid recipient address")
	ErrInvalidCreator   = errors.New("invalid creator address")
	ErrInvalidReference = errors.New("invalid transaction reference")

	ErrLinkNotFound           = errors.New("link not found")
	ErrDepositAlreadyRecorded = errors.New("deposit already recorded")
	ErrDepositMissing         = errors.New("deposit missing")
	ErrAlreadyClaimed         = errors.New("link already claimed")

	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrDecryptionFailed   = errors.New("decryption failed")
	ErrSpendKeyMissing    = errors.New("spend key missing")
	ErrSpendKeyAlreadySet = errors.New("spend key already set")
	ErrVaultUnavailable   = errors.New("key vault not configured")
)

// InsufficientBalanceError carries the shortfall of a failed preflight check.
type InsufficientBalanceError struct {
	Operation Operation
	Asset     AssetType
	Required  uint64
	Available uint64
	Shortfall uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s of %s: required %d, available %d, shortfall %d",
		e.Operation, e.Asset, e.Required, e.Available, e.Shortfall)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
