// Package scanner walks a single skill source tree and returns the candidate
// skill directories it finds. A candidate is any directory within the
// source's depth bound that contains a SKILL.md descriptor. The walk never
// fails: missing roots yield an empty result, unreadable subtrees are skipped
// and counted, and symlink cycles are broken by tracking visited real paths.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/skillscan/skillscan/pkg/logger"
	"github.com/skillscan/skillscan/pkg/sources"
)

// SkillFileName is the descriptor file that marks a skill directory
const SkillFileName = "SKILL.md"

// Candidate is one discovered skill directory
type Candidate struct {
	// SkillPath is the full path to the SKILL.md descriptor
	SkillPath string
	// Dir is the skill directory containing the descriptor
	Dir string
	// ModTime is the descriptor file's last modification time
	ModTime time.Time
}

// Result holds the outcome of scanning one source
type Result struct {
	Source     sources.Source
	Candidates []Candidate
	// SkippedDirs counts subtrees abandoned due to read errors (permissions)
	SkippedDirs int
	// Partial is true when the walk stopped early because the context
	// deadline elapsed
	Partial bool
}

type dirFrame struct {
	path  string
	depth int
}

// Scan walks the source tree and returns all candidates within the depth
// bound. The context deadline is checked between directories only, so a
// partial result is always well-formed.
func Scan(ctx context.Context, src sources.Source) Result {
	res := Result{Source: src}

	if _, err := os.Stat(src.Root); err != nil {
		// A missing personal or project directory is a normal condition.
		return res
	}

	visited := make(map[string]bool)
	queue := []dirFrame{{path: src.Root, depth: 0}}

	for len(queue) > 0 {
		if ctx.Err() != nil {
			res.Partial = true
			return res
		}

		frame := queue[0]
		queue = queue[1:]

		real, err := filepath.EvalSymlinks(frame.path)
		if err != nil {
			res.SkippedDirs++
			continue
		}
		if visited[real] {
			continue
		}
		visited[real] = true

		entries, err := os.ReadDir(frame.path)
		if err != nil {
			res.SkippedDirs++
			logger.G(ctx).WithError(err).WithField("dir", frame.path).Debug("skipping unreadable directory")
			continue
		}

		for _, entry := range entries {
			entryPath := filepath.Join(frame.path, entry.Name())

			// os.Stat resolves symlinked skill directories
			info, err := os.Stat(entryPath)
			if err != nil || !info.IsDir() {
				continue
			}

			depth := frame.depth + 1
			if depth > src.MaxDepth {
				continue
			}

			skillPath := filepath.Join(entryPath, SkillFileName)
			fi, err := os.Stat(skillPath)
			if err == nil && fi.Mode().IsRegular() {
				res.Candidates = append(res.Candidates, Candidate{
					SkillPath: skillPath,
					Dir:       entryPath,
					ModTime:   fi.ModTime(),
				})
				// A skill directory is a leaf; nested skills are not a thing.
				continue
			}

			if depth < src.MaxDepth {
				queue = append(queue, dirFrame{path: entryPath, depth: depth})
			}
		}
	}

	return res
}
