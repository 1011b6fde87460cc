package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillscan/skillscan/pkg/scanner"
	"github.com/skillscan/skillscan/pkg/sources"
)

func candidateWithContent(t *testing.T, name, content string) scanner.Candidate {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	skillPath := filepath.Join(dir, scanner.SkillFileName)
	require.NoError(t, os.WriteFile(skillPath, []byte(content), 0o644))
	return scanner.Candidate{SkillPath: skillPath, Dir: dir}
}

func TestExtractWellFormed(t *testing.T) {
	cand := candidateWithContent(t, "code-review", `---
name: code-review
description: Reviews code for style and correctness
allowed-tools:
  - Bash
  - Read
---

# Code Review

Body text is not parsed.
`)

	rec := Extract(sources.Source{Category: sources.CategoryPersonal}, cand)

	assert.Equal(t, StatusOK, rec.Status)
	assert.False(t, rec.Degraded())
	assert.Equal(t, "code-review", rec.ID)
	assert.Equal(t, "Reviews code for style and correctness", rec.Description)
	assert.Equal(t, []string{"Bash", "Read"}, rec.AllowedTools)
	assert.Equal(t, sources.CategoryPersonal, rec.Category)
	assert.Empty(t, rec.Group)
}

func TestExtractNameFallsBackToDirName(t *testing.T) {
	cand := candidateWithContent(t, "dir-derived", `---
description: No explicit name
---

Body.
`)

	rec := Extract(sources.Source{Category: sources.CategoryProject}, cand)

	assert.Equal(t, StatusOK, rec.Status)
	assert.Equal(t, "dir-derived", rec.ID)
	assert.Equal(t, "No explicit name", rec.Description)
}

func TestExtractOptionalFieldsDefault(t *testing.T) {
	cand := candidateWithContent(t, "minimal", `---
name: minimal
---

Body.
`)

	rec := Extract(sources.Source{Category: sources.CategoryPersonal}, cand)

	assert.Equal(t, StatusOK, rec.Status)
	assert.Empty(t, rec.Description)
	assert.Empty(t, rec.AllowedTools)
}

func TestExtractUnknownKeysIgnored(t *testing.T) {
	cand := candidateWithContent(t, "forward-compat", `---
name: forward-compat
description: Has fields from the future
license: MIT
x-extra:
  nested: true
---

Body.
`)

	rec := Extract(sources.Source{Category: sources.CategoryPersonal}, cand)

	assert.Equal(t, StatusOK, rec.Status)
	assert.Equal(t, "forward-compat", rec.ID)
}

func TestExtractDegraded(t *testing.T) {
	t.Run("missing frontmatter", func(t *testing.T) {
		cand := candidateWithContent(t, "no-header", "# Just a heading\n\nNo frontmatter at all.\n")

		rec := Extract(sources.Source{Category: sources.CategoryProject}, cand)

		assert.True(t, rec.Degraded())
		assert.Equal(t, "no-header", rec.ID)
		assert.Empty(t, rec.Description)
	})

	t.Run("invalid yaml header", func(t *testing.T) {
		cand := candidateWithContent(t, "bad-yaml", "---\nname: [unclosed\n  description: \"broken\n---\n\nBody.\n")

		rec := Extract(sources.Source{Category: sources.CategoryProject}, cand)

		assert.True(t, rec.Degraded())
		assert.Equal(t, "bad-yaml", rec.ID)
	})

	t.Run("unreadable file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "gone")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		cand := scanner.Candidate{
			SkillPath: filepath.Join(dir, scanner.SkillFileName),
			Dir:       dir,
		}

		rec := Extract(sources.Source{Category: sources.CategoryPersonal}, cand)

		assert.True(t, rec.Degraded())
		assert.Equal(t, "gone", rec.ID)
	})
}

func TestExtractPluginGroupCarriedThrough(t *testing.T) {
	cand := candidateWithContent(t, "deploy", `---
name: deploy
description: Deploys things
---
`)

	rec := Extract(sources.Source{
		Category:  sources.CategoryPlugin,
		GroupName: "infra-tools",
	}, cand)

	assert.Equal(t, sources.CategoryPlugin, rec.Category)
	assert.Equal(t, "infra-tools", rec.Group)
}
