package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"kroma-server/models"
)

// MemoryProjectStore 内存实现（storage: memory 模式与测试用），
// 数据仅在进程生命周期内保留。所有操作在单把锁下进行，
// Mutate 天然满足读-改-写的原子性。
type MemoryProjectStore struct {
	mu       sync.Mutex
	projects map[string]*models.Project
}

func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{projects: make(map[string]*models.Project)}
}

func (s *MemoryProjectStore) List(ctx context.Context, userID string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Project
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, *cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

func (s *MemoryProjectStore) Get(ctx context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProject(p), nil
}

func (s *MemoryProjectStore) Create(ctx context.Context, userID, name string) (*models.Project, error) {
	p := NewProject(userID, name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
	return cloneProject(p), nil
}

func (s *MemoryProjectStore) Update(ctx context.Context, id string, upd ProjectUpdate) (*models.Project, error) {
	return s.Mutate(ctx, id, func(p *models.Project) error {
		applyUpdate(p, upd)
		return nil
	})
}

func (s *MemoryProjectStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
	return nil
}

func (s *MemoryProjectStore) Mutate(ctx context.Context, id string, fn func(*models.Project) error) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	// 在副本上修改，fn 失败时不碰原数据
	work := cloneProject(p)
	if err := fn(work); err != nil {
		return nil, err
	}
	work.LastModified = time.Now()
	s.projects[id] = work
	return cloneProject(work), nil
}

func cloneProject(p *models.Project) *models.Project {
	cp := *p
	cp.Scenes = make(models.SceneList, len(p.Scenes))
	copy(cp.Scenes, p.Scenes)
	return &cp
}
