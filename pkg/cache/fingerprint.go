package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Pair is one (descriptor path, modification time) observation from a scan
type Pair struct {
	Path    string
	ModTime time.Time
}

// Fingerprint computes a deterministic digest over all discovered pairs plus
// any extra seed lines (e.g. filter configuration that shapes the rendered
// output). Pairs are sorted lexicographically by path first, so the result
// is independent of filesystem enumeration order and scan concurrency.
func Fingerprint(pairs []Pair, extra ...string) string {
	sorted := make([]Pair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	var b strings.Builder
	for _, p := range sorted {
		fmt.Fprintf(&b, "%s|%d\n", p.Path, p.ModTime.UnixNano())
	}
	for _, line := range extra {
		fmt.Fprintf(&b, "#%s\n", line)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
