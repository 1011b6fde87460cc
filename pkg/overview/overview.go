// Package overview renders the aggregated skill records into the catalog
// text injected at session start. Output ordering is fully deterministic:
// personal skills first, then project, then plugin skills grouped by plugin
// name, with case-insensitive alphabetical ordering inside every group. Two
// runs over the same records produce byte-identical text regardless of the
// order records arrive in.
package overview

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/skillscan/skillscan/pkg/metadata"
	"github.com/skillscan/skillscan/pkg/sources"
)

const overviewTemplate = `## Available Skills (Auto-Discovered)
{{- if .Partial}}

*Note: the scan hit its time budget; this catalog may be incomplete.*
{{- end}}
{{- if .Empty}}

No skills found. Skills will appear here once installed.
{{- else}}
{{- if .Personal}}

### Personal Skills
{{render .Personal}}
{{- end}}
{{- if .Project}}

### Project Skills
{{render .Project}}
{{- end}}
{{- if .PluginGroups}}

### Plugin Skills
{{- range .PluginGroups}}

#### {{.Name}}
{{render .Records}}
{{- end}}
{{- end}}

---
*{{.Summary}}*
*Skills are model-invoked based on your requests and descriptions.*
{{- end}}
`

// Group is one plugin's skills
type Group struct {
	Name    string
	Records []metadata.Record
}

type view struct {
	Empty        bool
	Partial      bool
	Personal     []metadata.Record
	Project      []metadata.Record
	PluginGroups []Group
	Summary      string
}

// Render produces the catalog text for the given records. partial marks a
// time-bounded scan whose catalog may be incomplete.
func Render(records []metadata.Record, partial bool) string {
	v := buildView(records, partial)

	tmpl := template.Must(template.New("overview").Funcs(template.FuncMap{
		"render": renderRecords,
	}).Parse(overviewTemplate))

	var b strings.Builder
	// The template only ever ranges over prepared data; execution cannot fail.
	_ = tmpl.Execute(&b, v)
	return b.String()
}

func buildView(records []metadata.Record, partial bool) view {
	v := view{
		Empty:   len(records) == 0,
		Partial: partial,
	}
	if v.Empty {
		return v
	}

	groups := make(map[string][]metadata.Record)
	for _, rec := range records {
		switch rec.Category {
		case sources.CategoryPersonal:
			v.Personal = append(v.Personal, rec)
		case sources.CategoryProject:
			v.Project = append(v.Project, rec)
		case sources.CategoryPlugin:
			groups[rec.Group] = append(groups[rec.Group], rec)
		}
	}

	sortRecords(v.Personal)
	sortRecords(v.Project)

	groupNames := make([]string, 0, len(groups))
	for name := range groups {
		groupNames = append(groupNames, name)
	}
	sort.Slice(groupNames, func(i, j int) bool {
		return lessFold(groupNames[i], groupNames[j])
	})
	for _, name := range groupNames {
		recs := groups[name]
		sortRecords(recs)
		v.PluginGroups = append(v.PluginGroups, Group{Name: name, Records: recs})
	}

	v.Summary = summarize(records)
	return v
}

// sortRecords orders records case-insensitively by ID, with a byte-wise
// tiebreak so equal-fold IDs still sort deterministically.
func sortRecords(recs []metadata.Record) {
	sort.Slice(recs, func(i, j int) bool {
		return lessFold(recs[i].ID, recs[j].ID)
	})
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

func renderRecords(recs []metadata.Record) string {
	var lines []string
	for _, rec := range recs {
		if rec.Degraded() {
			lines = append(lines, "- **"+rec.ID+"** *(metadata unavailable)*")
			continue
		}

		line := "- **" + rec.ID + "**"
		if rec.Description != "" {
			line += ": " + rec.Description
		}
		lines = append(lines, line)

		if len(rec.AllowedTools) > 0 {
			lines = append(lines, "  *Tools: "+strings.Join(rec.AllowedTools, ", ")+"*")
		}
	}
	return strings.Join(lines, "\n")
}

func summarize(records []metadata.Record) string {
	var personal, project, plugin, degraded int
	for _, rec := range records {
		switch rec.Category {
		case sources.CategoryPersonal:
			personal++
		case sources.CategoryProject:
			project++
		case sources.CategoryPlugin:
			plugin++
		}
		if rec.Degraded() {
			degraded++
		}
	}

	noun := "skills"
	if len(records) == 1 {
		noun = "skill"
	}

	summary := fmt.Sprintf("%d %s found (%d personal, %d project, %d plugin",
		len(records), noun, personal, project, plugin)
	if degraded > 0 {
		summary += fmt.Sprintf("; %d degraded", degraded)
	}
	return summary + ")."
}
