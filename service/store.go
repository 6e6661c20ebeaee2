package service

import (
	"context"
	"errors"
	"time"

	"kroma-server/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectUpdate 浅合并更新：只有非 nil 字段会被写入，lastModified 总是刷新。
type ProjectUpdate struct {
	Name            *string
	ScriptPrompt    *string
	CharacterPrompt *string
	Step            *string
	AspectRatio     *string
}

// ProjectStore 项目集合，按 id 寻址。Mutate 是唯一的读-改-写入口：
// 所有异步结果合并都通过它在当前快照上按稳定 id 应用，保证并发安全。
type ProjectStore interface {
	List(ctx context.Context, userID string) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Create(ctx context.Context, userID, name string) (*models.Project, error)
	Update(ctx context.Context, id string, upd ProjectUpdate) (*models.Project, error)
	// Delete 幂等：id 不存在时为 no-op。
	Delete(ctx context.Context, id string) error
	// Mutate 原子地加载、修改并写回一个项目。id 不存在返回 ErrNotFound；
	// fn 返回错误则放弃写回并透传该错误。
	Mutate(ctx context.Context, id string, fn func(*models.Project) error) (*models.Project, error)
}

// GormProjectStore MySQL 实现，Mutate 内用行锁串行化同一项目的并发合并。
type GormProjectStore struct {
	db *gorm.DB
}

func NewGormProjectStore(db *gorm.DB) *GormProjectStore {
	return &GormProjectStore{db: db}
}

func (s *GormProjectStore) List(ctx context.Context, userID string) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_modified DESC").
		Find(&projects).Error
	return projects, err
}

func (s *GormProjectStore) Get(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *GormProjectStore) Create(ctx context.Context, userID, name string) (*models.Project, error) {
	p := NewProject(userID, name)
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *GormProjectStore) Update(ctx context.Context, id string, upd ProjectUpdate) (*models.Project, error) {
	return s.Mutate(ctx, id, func(p *models.Project) error {
		applyUpdate(p, upd)
		return nil
	})
}

func (s *GormProjectStore) Delete(ctx context.Context, id string) error {
	// 不检查 RowsAffected：重复删除是合法的 no-op
	return s.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id).Error
}

func (s *GormProjectStore) Mutate(ctx context.Context, id string, fn func(*models.Project) error) (*models.Project, error) {
	var out models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		p.LastModified = time.Now()
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// NewProject 按默认值建项目：step=script、空分镜、16:9。
func NewProject(userID, name string) *models.Project {
	now := time.Now()
	return &models.Project{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		Step:         models.StepScript,
		AspectRatio:  models.AspectLandscape,
		Scenes:       models.SceneList{},
		CreatedAt:    now,
		LastModified: now,
	}
}

func applyUpdate(p *models.Project, upd ProjectUpdate) {
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.ScriptPrompt != nil {
		p.ScriptPrompt = *upd.ScriptPrompt
	}
	if upd.CharacterPrompt != nil {
		p.CharacterPrompt = *upd.CharacterPrompt
	}
	if upd.Step != nil {
		p.Step = *upd.Step
	}
	if upd.AspectRatio != nil {
		p.AspectRatio = *upd.AspectRatio
	}
}
