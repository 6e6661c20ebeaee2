package service

import (
	"context"
	"sync"
	"time"

	"kroma-server/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditLedger 信用点账本。Debit 必须是原子的 decrement-if-sufficient：
// 并发扣费对一个只够扣一次的余额只能成功一次，余额永不为负。
type CreditLedger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	// Debit 原子扣费；余额不足时返回 (false, nil)，不产生任何扣减。
	Debit(ctx context.Context, userID string, amount int64) (bool, error)
	Credit(ctx context.Context, userID string, amount int64) error
	// Ensure 首次见到某用户时建立账本记录并发放初始额度，已存在则 no-op。
	Ensure(ctx context.Context, userID, displayName string, initial int64) error
}

// GormLedger 基于 MySQL 的账本实现，扣费用单条条件 UPDATE 保证原子性。
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) Balance(ctx context.Context, userID string) (int64, error) {
	var p models.UserProfile
	if err := l.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return p.Credits, nil
}

func (l *GormLedger) Debit(ctx context.Context, userID string, amount int64) (bool, error) {
	// 条件 UPDATE：只有余额足够时才扣，read-modify-write 在数据库内一步完成
	res := l.db.WithContext(ctx).Exec(
		`UPDATE user_profile SET credits = credits - ?, updated_at = ? WHERE user_id = ? AND credits >= ?`,
		amount, time.Now(), userID, amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (l *GormLedger) Credit(ctx context.Context, userID string, amount int64) error {
	res := l.db.WithContext(ctx).Exec(
		`UPDATE user_profile SET credits = credits + ?, updated_at = ? WHERE user_id = ?`,
		amount, time.Now(), userID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (l *GormLedger) Ensure(ctx context.Context, userID, displayName string, initial int64) error {
	now := time.Now()
	profile := models.UserProfile{
		UserID:      userID,
		DisplayName: displayName,
		Credits:     initial,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error
}

// MemoryLedger 内存账本，用于 storage: memory 模式与测试。
type MemoryLedger struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{profiles: make(map[string]*models.UserProfile)}
}

func (l *MemoryLedger) Balance(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.profiles[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return p.Credits, nil
}

func (l *MemoryLedger) Debit(ctx context.Context, userID string, amount int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.profiles[userID]
	if !ok || p.Credits < amount {
		return false, nil
	}
	p.Credits -= amount
	p.UpdatedAt = time.Now()
	return true, nil
}

func (l *MemoryLedger) Credit(ctx context.Context, userID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.Credits += amount
	p.UpdatedAt = time.Now()
	return nil
}

func (l *MemoryLedger) Ensure(ctx context.Context, userID, displayName string, initial int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.profiles[userID]; ok {
		return nil
	}
	now := time.Now()
	l.profiles[userID] = &models.UserProfile{
		UserID:      userID,
		DisplayName: displayName,
		Credits:     initial,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return nil
}
