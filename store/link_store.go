package store

import (
	"context"

	"github.com/DomeLiquid/paylink/core"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (s *GormStore) CreateLink(ctx context.Context, link *core.PaymentLink) error {
	return s.db.WithContext(ctx).Omit("Transactions").Create(link).Error
}

func (s *GormStore) GetLink(ctx context.Context, id string) (*core.PaymentLink, error) {
	var link core.PaymentLink
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (s *GormStore) ListLinksByCreator(ctx context.Context, creator string, limit int) ([]*core.PaymentLink, error) {
	var links []*core.PaymentLink
	err := s.db.WithContext(ctx).
		Where("creator_address = ?", creator).
		Order("created_at DESC").Order("id").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (s *GormStore) AttachDeposit(ctx context.Context, id, ref string, updatedAt int64) (bool, error) {
	result := s.db.WithContext(ctx).Model(&core.PaymentLink{}).
		Where("id = ? AND deposit_transaction_ref IS NULL", id).
		Updates(map[string]interface{}{
			"deposit_transaction_ref": ref,
			"updated_at":              updatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkClaimed is the single point where a link becomes claimed. The predicate
// on claimed makes concurrent callers race on the row, and exactly one of them
// sees a row affected.
func (s *GormStore) MarkClaimed(ctx context.Context, id, claimedBy, withdrawRef string, updatedAt int64) (bool, error) {
	result := s.db.WithContext(ctx).Model(&core.PaymentLink{}).
		Where("id = ? AND claimed = ? AND deposit_transaction_ref IS NOT NULL", id, false).
		Updates(map[string]interface{}{
			"claimed":                  true,
			"claimed_by":               claimedBy,
			"withdraw_transaction_ref": withdrawRef,
			"updated_at":               updatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) AttachSpendKey(ctx context.Context, id string, sealed core.SealedKey, updatedAt int64) (bool, error) {
	result := s.db.WithContext(ctx).Model(&core.PaymentLink{}).
		Where("id = ? AND encrypted_spend_key IS NULL", id).
		Updates(map[string]interface{}{
			"encrypted_spend_key": sealed.Ciphertext,
			"encryption_iv":       sealed.IV,
			"encryption_salt":     sealed.Salt,
			"updated_at":          updatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteLink removes the link and its records. Records are deleted explicitly
// since SQLite only cascades with foreign keys enabled.
func (s *GormStore) DeleteLink(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&core.TransactionRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&core.PaymentLink{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return core.ErrLinkNotFound
		}
		return nil
	})
}
