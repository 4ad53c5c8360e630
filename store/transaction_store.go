package store

import (
	"context"

	"github.com/DomeLiquid/paylink/core"
)

func (s *GormStore) CreateTransaction(ctx context.Context, record *core.TransactionRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *GormStore) ListTransactionsByLink(ctx context.Context, linkId string) ([]*core.TransactionRecord, error) {
	var records []*core.TransactionRecord
	err := s.db.WithContext(ctx).
		Where("link_id = ?", linkId).
		Order("created_at").Order("type").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
