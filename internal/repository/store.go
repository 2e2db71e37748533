package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordStore — хранилище записей: чтение через пул, запись в транзакции.
type RecordStore interface {
	RecordRepository
	// InTx выполняет fn в одной транзакции; ошибка fn откатывает все изменения.
	InTx(ctx context.Context, fn func(RecordRepository) error) error
}

// pgRecordStore — RecordStore поверх pgxpool.
type pgRecordStore struct {
	RecordRepository
	tx *TxRunner
}

// NewRecordStore создаёт хранилище записей на пуле pool.
func NewRecordStore(pool *pgxpool.Pool) RecordStore {
	return &pgRecordStore{
		RecordRepository: NewRecordRepository(pool),
		tx:               NewTxRunner(pool),
	}
}

// InTx выполняет fn в транзакции.
func (s *pgRecordStore) InTx(ctx context.Context, fn func(RecordRepository) error) error {
	return s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		return fn(NewRecordRepository(tx))
	})
}
