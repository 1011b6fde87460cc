package overview

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillscan/skillscan/pkg/metadata"
	"github.com/skillscan/skillscan/pkg/sources"
)

func recordsFixture() []metadata.Record {
	return []metadata.Record{
		{Category: sources.CategoryPersonal, ID: "zeta", Description: "Last alphabetically", Status: metadata.StatusOK},
		{Category: sources.CategoryPersonal, ID: "Alpha", Description: "First alphabetically", Status: metadata.StatusOK},
		{Category: sources.CategoryProject, ID: "builder", Description: "Builds artifacts", AllowedTools: []string{"Bash", "Write"}, Status: metadata.StatusOK},
		{Category: sources.CategoryPlugin, Group: "infra-tools", ID: "deploy", Description: "Deploys services", Status: metadata.StatusOK},
		{Category: sources.CategoryPlugin, Group: "infra-tools", ID: "rollback", Description: "Rolls back a deploy", Status: metadata.StatusOK},
		{Category: sources.CategoryPlugin, Group: "analytics", ID: "report", Description: "Generates reports", Status: metadata.StatusOK},
		{Category: sources.CategoryProject, ID: "broken", Status: metadata.StatusDegraded},
	}
}

func TestRenderDeterministicUnderPermutation(t *testing.T) {
	records := recordsFixture()
	expected := Render(records, false)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		permuted := make([]metadata.Record, len(records))
		copy(permuted, records)
		rng.Shuffle(len(permuted), func(a, b int) {
			permuted[a], permuted[b] = permuted[b], permuted[a]
		})

		assert.Equal(t, expected, Render(permuted, false))
	}
}

func TestRenderGroupingAndOrder(t *testing.T) {
	text := Render(recordsFixture(), false)

	// Category sections appear in fixed order
	personal := strings.Index(text, "### Personal Skills")
	project := strings.Index(text, "### Project Skills")
	plugin := strings.Index(text, "### Plugin Skills")
	require.True(t, personal >= 0 && project >= 0 && plugin >= 0)
	assert.Less(t, personal, project)
	assert.Less(t, project, plugin)

	// Case-insensitive alphabetical order inside a section
	assert.Less(t, strings.Index(text, "**Alpha**"), strings.Index(text, "**zeta**"))

	// Plugin groups sorted by name
	assert.Less(t, strings.Index(text, "#### analytics"), strings.Index(text, "#### infra-tools"))
	assert.Less(t, strings.Index(text, "**deploy**"), strings.Index(text, "**rollback**"))
}

func TestRenderDegradedMarker(t *testing.T) {
	text := Render(recordsFixture(), false)

	assert.Contains(t, text, "- **broken** *(metadata unavailable)*")
	// Degraded records carry no description line
	assert.NotContains(t, text, "**broken**:")
}

func TestRenderAllowedTools(t *testing.T) {
	text := Render(recordsFixture(), false)

	assert.Contains(t, text, "- **builder**: Builds artifacts")
	assert.Contains(t, text, "*Tools: Bash, Write*")
}

func TestRenderSummary(t *testing.T) {
	text := Render(recordsFixture(), false)

	assert.Contains(t, text, "7 skills found (2 personal, 2 project, 3 plugin; 1 degraded).")
	assert.Contains(t, text, "Skills are model-invoked")
}

func TestRenderScenarioTwoOkOneDegraded(t *testing.T) {
	records := []metadata.Record{
		{Category: sources.CategoryPersonal, ID: "alpha", Description: "First skill", Status: metadata.StatusOK},
		{Category: sources.CategoryPersonal, ID: "beta", Description: "Second skill", Status: metadata.StatusOK},
		{Category: sources.CategoryProject, ID: "gamma", Status: metadata.StatusDegraded},
	}

	text := Render(records, false)

	assert.Contains(t, text, "- **alpha**: First skill")
	assert.Contains(t, text, "- **beta**: Second skill")
	assert.Contains(t, text, "- **gamma** *(metadata unavailable)*")
	assert.Contains(t, text, "3 skills found (2 personal, 1 project, 0 plugin; 1 degraded).")
}

func TestRenderEmpty(t *testing.T) {
	text := Render(nil, false)

	assert.Contains(t, text, "No skills found.")
	assert.NotContains(t, text, "###")
}

func TestRenderSingular(t *testing.T) {
	records := []metadata.Record{
		{Category: sources.CategoryPersonal, ID: "solo", Description: "Only one", Status: metadata.StatusOK},
	}

	text := Render(records, false)
	assert.Contains(t, text, "1 skill found (1 personal, 0 project, 0 plugin).")
}

func TestRenderPartialNote(t *testing.T) {
	records := recordsFixture()

	full := Render(records, false)
	partial := Render(records, true)

	assert.NotContains(t, full, "time budget")
	assert.Contains(t, partial, "*Note: the scan hit its time budget; this catalog may be incomplete.*")
}
