// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gaugetrack/gaugetrack/models"
	"github.com/gaugetrack/gaugetrack/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceCounterRepositoryImpl implements SequenceCounterRepository
type SequenceCounterRepositoryImpl struct {
	db *gorm.DB
}

// NewSequenceCounterRepository creates a new sequence counter repository
func NewSequenceCounterRepository(db *gorm.DB) SequenceCounterRepository {
	return &SequenceCounterRepositoryImpl{db: db}
}

// Next allocates the next value of a named counter and returns it formatted
// as prefix + number (e.g. "SP1001"). The counter row is locked FOR UPDATE
// so concurrent allocations in separate transactions serialize. Requires a
// caller-supplied transaction; allocation must commit or roll back together
// with the rows that consume the identifier.
func (r *SequenceCounterRepositoryImpl) Next(ctx context.Context, name, prefix string, start uint64) (string, error) {
	tx, ok := ctx.Value(TxContextKey).(*gorm.DB)
	if !ok || tx == nil {
		return "", ErrNoTransaction
	}

	var counter models.SequenceCounter
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		Limit(1).
		Find(&counter)
	if res.Error != nil {
		return "", fmt.Errorf("failed to lock sequence counter %s: %w", name, res.Error)
	}

	next := start
	if res.RowsAffected > 0 {
		last, err := parseCounterValue(counter.LastValue, prefix)
		if err != nil {
			return "", fmt.Errorf("corrupt sequence counter %s: %w", name, err)
		}
		next = last + 1
	}

	value := fmt.Sprintf("%s%d", prefix, next)
	now := utils.UTCNow()

	if res.RowsAffected == 0 {
		counter = models.SequenceCounter{
			Name:      name,
			LastValue: value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&counter).Error; err != nil {
			return "", fmt.Errorf("failed to create sequence counter %s: %w", name, err)
		}
		return value, nil
	}

	if err := tx.Model(&models.SequenceCounter{}).Where("name = ?", name).
		Updates(map[string]any{"last_value": value, "updated_at": now}).Error; err != nil {
		return "", fmt.Errorf("failed to advance sequence counter %s: %w", name, err)
	}
	return value, nil
}

func parseCounterValue(value, prefix string) (uint64, error) {
	numeric := strings.TrimPrefix(value, prefix)
	return strconv.ParseUint(numeric, 10, 64)
}
