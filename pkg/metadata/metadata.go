// Package metadata extracts skill records from SKILL.md descriptors. The
// descriptor starts with a YAML frontmatter block; the body below it is not
// interpreted here. Extraction is a total function: every candidate yields
// exactly one record, and any read or parse failure degrades that single
// record instead of failing the scan.
package metadata

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/skillscan/skillscan/pkg/logger"
	"github.com/skillscan/skillscan/pkg/scanner"
	"github.com/skillscan/skillscan/pkg/sources"
)

// ParseStatus indicates whether a record's metadata was parsed successfully
type ParseStatus string

const (
	// StatusOK means the frontmatter was parsed and fields extracted
	StatusOK ParseStatus = "ok"
	// StatusDegraded means parsing failed and only the directory-derived ID is known
	StatusDegraded ParseStatus = "degraded"
)

// Record is the durable unit of the catalog. Records are plain values with
// no filesystem handles, so the aggregate list can be reordered, filtered,
// and serialized freely.
type Record struct {
	Category     sources.Category
	Group        string
	ID           string
	Description  string
	AllowedTools []string
	Status       ParseStatus
}

// Degraded reports whether this record was produced by a failed parse
func (r Record) Degraded() bool {
	return r.Status == StatusDegraded
}

// frontmatter mirrors the recognized SKILL.md header fields. Unknown keys
// are ignored for forward compatibility.
type frontmatter struct {
	Name         string   `mapstructure:"name"`
	Description  string   `mapstructure:"description"`
	AllowedTools []string `mapstructure:"allowed-tools"`
}

// Extract reads the candidate's descriptor and returns its record. It never
// fails: a malformed descriptor has a blast radius of exactly one degraded
// record.
func Extract(src sources.Source, cand scanner.Candidate) Record {
	rec := Record{
		Category: src.Category,
		Group:    src.GroupName,
		ID:       filepath.Base(cand.Dir),
		Status:   StatusDegraded,
	}

	content, err := os.ReadFile(cand.SkillPath)
	if err != nil {
		logger.L.WithError(err).WithField("path", cand.SkillPath).Debug("failed to read skill descriptor")
		return rec
	}

	fm, err := parseFrontmatter(content)
	if err != nil {
		logger.L.WithError(err).WithField("path", cand.SkillPath).Debug("failed to parse skill frontmatter")
		return rec
	}

	if fm.Name != "" {
		rec.ID = fm.Name
	}
	rec.Description = fm.Description
	rec.AllowedTools = fm.AllowedTools
	rec.Status = StatusOK

	return rec
}

func parseFrontmatter(content []byte) (*frontmatter, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	var fm frontmatter
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fm,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create frontmatter decoder")
	}
	if err := decoder.Decode(metaData); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}

	return &fm, nil
}
