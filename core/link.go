package core

import (
	"context"
	"strings"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
)

type (
	LinkStore interface {
		CreateLink(ctx context.Context, link *PaymentLink) error
		GetLink(ctx context.Context, id string) (*PaymentLink, error)
		ListLinksByCreator(ctx context.Context, creator string, limit int) ([]*PaymentLink, error)
		// AttachDeposit sets the deposit ref only while it is still unset and
		// reports whether the row was updated.
		AttachDeposit(ctx context.Context, id, ref string, updatedAt int64) (bool, error)
		// MarkClaimed flips claimed false -> true together with claimedBy and
		// the withdraw ref in one conditional write, reporting whether it won.
		MarkClaimed(ctx context.Context, id, claimedBy, withdrawRef string, updatedAt int64) (bool, error)
		AttachSpendKey(ctx context.Context, id string, sealed SealedKey, updatedAt int64) (bool, error)
		DeleteLink(ctx context.Context, id string) error
	}

	PaymentLink struct {
		Id        string    `json:"id" gorm:"primaryKey;size:36"`
		Amount    uint64    `json:"amount" gorm:"not null"`
		AssetType AssetType `json:"assetType" gorm:"size:16;not null"`
		// withdrawal fee quoted at creation, settled at claim
		BaseFee       uint64 `json:"baseFee" gorm:"not null;default:0"`
		PercentageFee uint64 `json:"percentageFee" gorm:"not null;default:0"`

		DepositTransactionRef  *string `json:"depositTransactionRef" gorm:"size:128"`
		Claimed                bool    `json:"claimed" gorm:"not null;default:false;index"`
		ClaimedBy              *string `json:"claimedBy" gorm:"size:64"`
		WithdrawTransactionRef *string `json:"withdrawTransactionRef" gorm:"size:128"`

		EncryptedSpendKey *string `json:"encryptedSpendKey,omitempty" gorm:"type:text"`
		EncryptionIv      *string `json:"encryptionIv,omitempty" gorm:"size:64"`
		EncryptionSalt    *string `json:"encryptionSalt,omitempty" gorm:"size:64"`

		CreatorAddress *string `json:"creatorAddress,omitempty" gorm:"size:64;index"`

		Transactions []*TransactionRecord `json:"transactions,omitempty" gorm:"foreignKey:LinkId;references:Id;constraint:OnDelete:CASCADE"`

		CreatedAt int64 `json:"createdAt"`
		UpdatedAt int64 `json:"updatedAt"`
	}

	LinkState string
)

const (
	LinkStatePendingDeposit LinkState = "PENDING_DEPOSIT"
	LinkStateDeposited      LinkState = "DEPOSITED"
	LinkStateClaimed        LinkState = "CLAIMED"
)

func (s LinkState) String() string {
	switch s {
	case LinkStatePendingDeposit, LinkStateDeposited, LinkStateClaimed:
		return string(s)
	default:
		return "UNKNOWN"
	}
}

func (PaymentLink) TableName() string { return "payment_links" }

// LinkOptFunc is a function that can be used to modify a link before it is stored
type LinkOptFunc func(link *PaymentLink)

func WithCreator(address string) LinkOptFunc {
	return func(link *PaymentLink) {
		if address = strings.TrimSpace(address); address != "" {
			link.CreatorAddress = &address
		}
	}
}

func WithLinkId(id string) LinkOptFunc {
	return func(link *PaymentLink) {
		link.Id = id
	}
}

func NewPaymentLink(clk clock.Clock, amount uint64, assetType AssetType, opts ...LinkOptFunc) *PaymentLink {
	now := clk.Now().Unix()
	link := &PaymentLink{
		Id:        uuid.Must(uuid.NewV4()).String(),
		Amount:    amount,
		AssetType: assetType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(link)
	}
	return link
}

func (l *PaymentLink) State() LinkState {
	switch {
	case l.Claimed:
		return LinkStateClaimed
	case l.DepositTransactionRef != nil:
		return LinkStateDeposited
	default:
		return LinkStatePendingDeposit
	}
}

func WithFee(fee FeeBreakdown) LinkOptFunc {
	return func(link *PaymentLink) {
		link.BaseFee = fee.BaseFee
		link.PercentageFee = fee.PercentageFee
	}
}

// Fee is the breakdown frozen on the link, independent of the schedule in
// force when the link is claimed.
func (l *PaymentLink) Fee() FeeBreakdown {
	total := l.BaseFee + l.PercentageFee
	fee := FeeBreakdown{
		Asset:         l.AssetType,
		Amount:        l.Amount,
		BaseFee:       l.BaseFee,
		PercentageFee: l.PercentageFee,
		TotalFee:      total,
	}
	if total < l.Amount {
		fee.NetAmount = l.Amount - total
	}
	return fee
}

func (l *PaymentLink) HasSpendKey() bool {
	return l.EncryptedSpendKey != nil && l.EncryptionIv != nil
}

func (l *PaymentLink) SealedKey() (SealedKey, bool) {
	if !l.HasSpendKey() {
		return SealedKey{}, false
	}
	sealed := SealedKey{Ciphertext: *l.EncryptedSpendKey, IV: *l.EncryptionIv}
	if l.EncryptionSalt != nil {
		sealed.Salt = *l.EncryptionSalt
	}
	return sealed, true
}

// Public strips the sealed key material from the projection.
func (l *PaymentLink) Public() *PaymentLink {
	c := *l
	c.EncryptedSpendKey = nil
	c.EncryptionIv = nil
	c.EncryptionSalt = nil
	c.Transactions = nil
	return &c
}

func StringPtr(s string) *string {
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
