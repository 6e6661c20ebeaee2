package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"kroma-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateDefaults(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProjectStore()

	p, err := s.Create(ctx, "u1", "My Film")
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.StepScript, p.Step)
	assert.Equal(t, models.AspectLandscape, p.AspectRatio)
	assert.Empty(t, p.Scenes)
}

func TestStoreUpdateShallowMerge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProjectStore()
	p, _ := s.Create(ctx, "u1", "My Film")
	before := p.LastModified

	time.Sleep(time.Millisecond)
	prompt := "a lonely robot in the rain"
	step := models.StepCharacter
	got, err := s.Update(ctx, p.ID, ProjectUpdate{ScriptPrompt: &prompt, Step: &step})
	require.NoError(t, err)

	// 只有提供的字段被写入，其余保持不变，lastModified 总是刷新
	assert.Equal(t, prompt, got.ScriptPrompt)
	assert.Equal(t, models.StepCharacter, got.Step)
	assert.Equal(t, "My Film", got.Name)
	assert.True(t, got.LastModified.After(before))
}

func TestStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProjectStore()
	p, _ := s.Create(ctx, "u1", "My Film")

	require.NoError(t, s.Delete(ctx, p.ID))
	// 重复删除同样成功
	require.NoError(t, s.Delete(ctx, p.ID))

	_, err := s.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreMutate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProjectStore()
	p, _ := s.Create(ctx, "u1", "My Film")

	_, err := s.Mutate(ctx, "missing", func(pr *models.Project) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)

	// fn 返回错误时放弃写回，项目保持原样
	boom := errors.New("boom")
	_, err = s.Mutate(ctx, p.ID, func(pr *models.Project) error {
		pr.Name = "broken"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ := s.Get(ctx, p.ID)
	assert.Equal(t, "My Film", got.Name)

	_, err = s.Mutate(ctx, p.ID, func(pr *models.Project) error {
		pr.AppendScene("new scene")
		return nil
	})
	require.NoError(t, err)
	got, _ = s.Get(ctx, p.ID)
	assert.Len(t, got.Scenes, 1)
}

func TestStoreListPerUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProjectStore()

	a, _ := s.Create(ctx, "u1", "older")
	time.Sleep(time.Millisecond)
	b, _ := s.Create(ctx, "u1", "newer")
	_, _ = s.Create(ctx, "u2", "other user")

	// 改动 older 后它应排到前面
	time.Sleep(time.Millisecond)
	name := "older (edited)"
	_, err := s.Update(ctx, a.ID, ProjectUpdate{Name: &name})
	require.NoError(t, err)

	list, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}
