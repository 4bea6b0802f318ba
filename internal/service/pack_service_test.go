package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadManifestConsolidated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.json")
	writeFile(t, path, `{
		"name": "生日任务",
		"version": 3,
		"characters": [{"name": "梅医生", "class": "寿星"}],
		"categories": [{
			"name": "往事回忆",
			"icon": "🎂",
			"questions": [{"text": "第一题", "answers": ["对", "错"], "correctIndex": 0}]
		}],
		"story": {
			"intro": {"text": "开场"},
			"acts": [{"text": "第一幕"}],
			"victory": {"text": "胜利"}
		}
	}`)

	m, err := loadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "生日任务", m.Name)
	assert.Equal(t, 3, m.Version)
	require.Len(t, m.Characters, 1)
	assert.Equal(t, "梅医生", m.Characters[0].Name)
	require.Len(t, m.Categories, 1)
	assert.Equal(t, "往事回忆", m.Categories[0].Name)
	require.Len(t, m.Categories[0].Questions, 1)
	assert.Equal(t, "开场", m.Story.Intro.Text)
}

// 拆分布局：薄清单引用 metadata/角色/分类文件，引用相对清单所在目录
func TestLoadManifestSplitLayout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.json"), `{
		"metadata": "metadata.json",
		"characters": "characters.json",
		"categories": ["categories/memories.json", "categories/food.json"]
	}`)
	writeFile(t, filepath.Join(dir, "metadata.json"), `{
		"name": "生日任务",
		"version": 2,
		"story": {
			"intro": {"text": "开场"},
			"acts": [{"text": "第一幕"}, {"text": "第二幕"}],
			"victory": {"text": "胜利"}
		}
	}`)
	writeFile(t, filepath.Join(dir, "characters.json"),
		`[{"name": "梅医生", "class": "寿星"}, {"name": "小护士"}]`)
	writeFile(t, filepath.Join(dir, "categories", "memories.json"), `{
		"name": "往事回忆",
		"icon": "🎂",
		"questions": [{"text": "第一题", "answers": ["对", "错", "不知道"], "correctIndex": 1}]
	}`)
	writeFile(t, filepath.Join(dir, "categories", "food.json"), `{
		"name": "美食趣闻",
		"questions": []
	}`)

	m, err := loadManifest(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, "生日任务", m.Name)
	assert.Equal(t, 2, m.Version)
	require.Len(t, m.Characters, 2)
	assert.Equal(t, "小护士", m.Characters[1].Name)
	require.Len(t, m.Categories, 2)
	assert.Equal(t, "往事回忆", m.Categories[0].Name)
	require.Len(t, m.Categories[0].Questions, 1)
	assert.Equal(t, 1, m.Categories[0].Questions[0].CorrectIndex)
	assert.Equal(t, "美食趣闻", m.Categories[1].Name)
	assert.Len(t, m.Story.Acts, 2)
}

func TestLoadManifestSplitLayoutMissingPart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.json"), `{
		"metadata": "metadata.json",
		"characters": "characters.json",
		"categories": []
	}`)
	writeFile(t, filepath.Join(dir, "metadata.json"), `{"name": "x"}`)

	_, err := loadManifest(filepath.Join(dir, "manifest.json"))
	assert.Error(t, err)
}

func TestLoadManifestRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.json")
	writeFile(t, path, `not json`)

	_, err := loadManifest(path)
	assert.Error(t, err)
}
