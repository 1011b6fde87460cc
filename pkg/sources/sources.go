// Package sources defines the registry of skill source trees. A source names
// a root directory to scan, how deep the scan may go, and which catalog
// category its skills belong to. Personal and project sources are fixed
// directories; plugin sources are enumerated from the installed-plugins
// manifest, one source per plugin.
package sources

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/skillscan/skillscan/pkg/logger"
)

// Category identifies the scope a skill was discovered under
type Category string

const (
	// CategoryPersonal is the user-global skills directory (~/.claude/skills)
	CategoryPersonal Category = "personal"
	// CategoryProject is the repo-local skills directory (./.claude/skills)
	CategoryProject Category = "project"
	// CategoryPlugin covers skills shipped by installed plugins
	CategoryPlugin Category = "plugin"
)

const (
	// Personal and project skills live directly under their root.
	standaloneMaxDepth = 1
	// Plugin skill trees may nest one extra level (grouped skill packages).
	// Kept deliberately small so a large plugin tree cannot blow the scan
	// budget on session start.
	pluginMaxDepth = 2

	pluginManifestName = "installed_plugins.json"
	pluginMetaFile     = "plugin.json"
	pluginMetaDir      = ".claude-plugin"
	skillsSubdir       = "skills"
)

// Source describes one directory tree to scan for skills
type Source struct {
	Category Category
	Root     string
	MaxDepth int
	// GroupName is the plugin display name; empty for personal/project sources
	GroupName string
}

// Registry holds the configured skill sources
type Registry struct {
	personalDir     string
	projectDir      string
	pluginsManifest string
	maxDepthCap     int
}

// Option configures a Registry
type Option func(*Registry) error

// WithPersonalDir overrides the personal skills directory
func WithPersonalDir(dir string) Option {
	return func(r *Registry) error {
		r.personalDir = dir
		return nil
	}
}

// WithProjectDir overrides the project skills directory
func WithProjectDir(dir string) Option {
	return func(r *Registry) error {
		r.projectDir = dir
		return nil
	}
}

// WithPluginsManifest overrides the installed-plugins manifest path
func WithPluginsManifest(path string) Option {
	return func(r *Registry) error {
		r.pluginsManifest = path
		return nil
	}
}

// WithMaxDepthCap caps the scan depth of every source. Values below 1 are
// rejected because a zero cap would silently hide all skills.
func WithMaxDepthCap(depth int) Option {
	return func(r *Registry) error {
		if depth < 1 {
			return errors.Errorf("max depth cap must be at least 1, got %d", depth)
		}
		r.maxDepthCap = depth
		return nil
	}
}

// NewRegistry creates a source registry. With no options it points at the
// default personal, project, and plugin locations.
func NewRegistry(opts ...Option) (*Registry, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}

	r := &Registry{
		personalDir:     filepath.Join(homeDir, ".claude", skillsSubdir),
		projectDir:      filepath.Join(".claude", skillsSubdir),
		pluginsManifest: filepath.Join(homeDir, ".claude", "plugins", pluginManifestName),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Sources returns the full source list for one scan. Plugin sources are
// re-enumerated from the manifest on every call so that installs and removals
// between invocations are picked up without restarting anything.
func (r *Registry) Sources() []Source {
	srcs := []Source{
		{Category: CategoryPersonal, Root: r.personalDir, MaxDepth: standaloneMaxDepth},
		{Category: CategoryProject, Root: r.projectDir, MaxDepth: standaloneMaxDepth},
	}

	srcs = append(srcs, r.pluginSources()...)

	if r.maxDepthCap > 0 {
		for i := range srcs {
			if srcs[i].MaxDepth > r.maxDepthCap {
				srcs[i].MaxDepth = r.maxDepthCap
			}
		}
	}

	return srcs
}

// pluginManifest mirrors the installed-plugins manifest layout. Unknown
// fields are ignored.
type pluginManifest struct {
	Plugins map[string]struct {
		InstallPath string `json:"installPath"`
	} `json:"plugins"`
}

// pluginMeta mirrors the per-plugin metadata file layout
type pluginMeta struct {
	Name string `json:"name"`
}

func (r *Registry) pluginSources() []Source {
	data, err := os.ReadFile(r.pluginsManifest)
	if err != nil {
		// No manifest means no plugins installed; a normal condition.
		return nil
	}

	var manifest pluginManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		logger.L.WithError(err).WithField("path", r.pluginsManifest).Debug("failed to parse plugins manifest")
		return nil
	}

	var srcs []Source
	for _, info := range manifest.Plugins {
		if info.InstallPath == "" {
			continue
		}

		skillsDir := filepath.Join(info.InstallPath, skillsSubdir)
		if _, err := os.Stat(skillsDir); err != nil {
			continue
		}

		srcs = append(srcs, Source{
			Category:  CategoryPlugin,
			Root:      skillsDir,
			MaxDepth:  pluginMaxDepth,
			GroupName: resolvePluginName(info.InstallPath),
		})
	}

	return srcs
}

// resolvePluginName reads the plugin display name from its metadata file,
// falling back to the install directory base name.
func resolvePluginName(installPath string) string {
	data, err := os.ReadFile(filepath.Join(installPath, pluginMetaDir, pluginMetaFile))
	if err == nil {
		var meta pluginMeta
		if err := json.Unmarshal(data, &meta); err == nil && meta.Name != "" {
			return meta.Name
		}
	}
	return filepath.Base(installPath)
}
