package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject() *Project {
	p := &Project{
		ID:          "p1",
		UserID:      "u1",
		Name:        "demo",
		Step:        StepScript,
		AspectRatio: AspectLandscape,
	}
	p.ReplaceScenes([]string{"开场", "冲突", "结尾"})
	return p
}

func TestReplaceScenes(t *testing.T) {
	p := newTestProject()
	require.Len(t, p.Scenes, 3)
	for i, s := range p.Scenes {
		assert.Equal(t, i+1, s.Order)
		assert.Equal(t, SceneStatusPending, s.Status)
		assert.NotEmpty(t, s.ID)
	}

	// 重建会整体替换旧列表
	p.ReplaceScenes([]string{"only one"})
	require.Len(t, p.Scenes, 1)
	assert.Equal(t, 1, p.Scenes[0].Order)
}

func TestStartScene(t *testing.T) {
	p := newTestProject()
	id := p.Scenes[0].ID

	require.NoError(t, p.StartScene(id))
	assert.Equal(t, SceneStatusGenerating, p.Scenes[0].Status)

	// generating 状态下不允许重复触发
	assert.Error(t, p.StartScene(id))

	// completed 是终态，没有重生成入口
	p.Scenes[0].Status = SceneStatusCompleted
	assert.Error(t, p.StartScene(id))

	// error 可以重试，且旧的错误信息和视频地址被清掉
	p.Scenes[0].Status = SceneStatusError
	p.Scenes[0].Error = "Video generation failed"
	p.Scenes[0].VideoUrl = "http://stale"
	require.NoError(t, p.StartScene(id))
	assert.Equal(t, SceneStatusGenerating, p.Scenes[0].Status)
	assert.Empty(t, p.Scenes[0].Error)
	assert.Empty(t, p.Scenes[0].VideoUrl)

	assert.Error(t, p.StartScene("no-such-scene"))
}

func TestCompleteAndFailScene(t *testing.T) {
	p := newTestProject()
	id := p.Scenes[1].ID
	require.NoError(t, p.StartScene(id))

	assert.True(t, p.CompleteScene(id, "http://cdn/video.mp4"))
	assert.Equal(t, SceneStatusCompleted, p.Scenes[1].Status)
	assert.Equal(t, "http://cdn/video.mp4", p.Scenes[1].VideoUrl)
	assert.Empty(t, p.Scenes[1].Error)

	id2 := p.Scenes[2].ID
	assert.True(t, p.FailScene(id2, "Video generation failed"))
	assert.Equal(t, SceneStatusError, p.Scenes[2].Status)
	assert.Equal(t, "Video generation failed", p.Scenes[2].Error)

	// 目标分镜已删除：返回 false，调用方静默丢弃结果
	assert.False(t, p.CompleteScene("gone", "http://cdn/x.mp4"))
	assert.False(t, p.FailScene("gone", "whatever"))
}

func TestAppendAndRemoveScene(t *testing.T) {
	p := newTestProject()

	s := p.AppendScene("新的分镜")
	assert.Equal(t, 4, s.Order)
	assert.Equal(t, SceneStatusPending, s.Status)

	// 删除中间一个后追加，order 取最大值 +1，不回填空洞
	assert.True(t, p.RemoveScene(p.Scenes[1].ID))
	s2 := p.AppendScene("again")
	assert.Equal(t, 5, s2.Order)

	assert.False(t, p.RemoveScene("no-such-scene"))
}

func TestFindSceneByID(t *testing.T) {
	p := newTestProject()
	id := p.Scenes[2].ID
	s := p.FindScene(id)
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Order)
	assert.Nil(t, p.FindScene("missing"))
}

func TestSceneListScanNil(t *testing.T) {
	var l SceneList
	require.NoError(t, l.Scan(nil))
	assert.NotNil(t, l)
	assert.Len(t, l, 0)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidStep(StepScript))
	assert.True(t, ValidStep(StepProduction))
	assert.False(t, ValidStep("render"))
	assert.True(t, ValidAspectRatio(AspectPortrait))
	assert.False(t, ValidAspectRatio("4:3"))
}
