package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"kroma-server/models"

	"gorm.io/gorm"
)

// TaskStore 生成任务记录的存取。任务记录是进度/错误的瞬态展示面：
// 剧本与角色生成的失败只落在这里，不写入项目实体。
type TaskStore interface {
	Create(ctx context.Context, t *models.GenTask) error
	Get(ctx context.Context, id string) (*models.GenTask, error)
	SetStatus(ctx context.Context, id, status, errMsg string) error
}

type GormTaskStore struct {
	db *gorm.DB
}

func NewGormTaskStore(db *gorm.DB) *GormTaskStore {
	return &GormTaskStore{db: db}
}

func (s *GormTaskStore) Create(ctx context.Context, t *models.GenTask) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *GormTaskStore) Get(ctx context.Context, id string) (*models.GenTask, error) {
	var t models.GenTask
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *GormTaskStore) SetStatus(ctx context.Context, id, status, errMsg string) error {
	return s.db.WithContext(ctx).Model(&models.GenTask{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"error":      errMsg,
			"updated_at": time.Now(),
		}).Error
}

type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*models.GenTask
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]*models.GenTask)}
}

func (s *MemoryTaskStore) Create(ctx context.Context, t *models.GenTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *MemoryTaskStore) Get(ctx context.Context, id string) (*models.GenTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryTaskStore) SetStatus(ctx context.Context, id, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	t.Error = errMsg
	t.UpdatedAt = time.Now()
	return nil
}
