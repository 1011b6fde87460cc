// Command skillscan discovers available skills from personal, project, and
// plugin sources and emits a cached catalog for injection at session start.
// It is designed to run as a SessionStart hook: the lifecycle payload
// arrives on stdin and the hook response leaves on stdout within the host's
// time budget.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/skillscan/skillscan/pkg/cache"
	"github.com/skillscan/skillscan/pkg/discovery"
	"github.com/skillscan/skillscan/pkg/hookio"
	"github.com/skillscan/skillscan/pkg/logger"
	"github.com/skillscan/skillscan/pkg/sources"
)

const defaultTimeout = 8 * time.Second

func init() {
	viper.SetEnvPrefix("SKILLSCAN")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillscan")
	viper.AddConfigPath(".")

	viper.SetDefault("timeout", defaultTimeout)

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillscan",
	Short: "Discover and catalog available skills for session start",
	Long: `Skillscan scans personal (~/.claude/skills), project (./.claude/skills),
and installed-plugin skill directories for SKILL.md descriptors, renders a
catalog overview, and caches it behind a content fingerprint so unchanged
sessions start instantly.

Run without arguments it behaves as a SessionStart hook: it reads the
lifecycle payload from stdin and writes the hook response JSON to stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDiscovery,
}

func runDiscovery(cmd *cobra.Command, _ []string) error {
	applyLogConfig()

	cmd.Flags().Visit(func(flag *pflag.Flag) {
		logger.L.WithField("flag", flag.Name).WithField("value", flag.Value.String()).Debug("flag set")
	})

	testMode, _ := cmd.Flags().GetBool("test")

	timeout := viper.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if !testMode {
		payload := hookio.ReadPayload(os.Stdin)
		if payload.SessionID != "" {
			ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("session_id", payload.SessionID))
		}
	}

	engine, err := newEngine(viper.GetBool("force_refresh"))
	if err != nil {
		// The only non-zero exit: no catalog could be produced at all.
		return err
	}

	res := engine.Run(ctx)
	if res.Warnings != nil {
		logger.G(ctx).WithError(res.Warnings).Warn("discovery completed with warnings")
	}

	if testMode {
		fmt.Fprint(os.Stdout, res.Text)
		return nil
	}

	return hookio.WriteOutput(os.Stdout, hookio.NewSessionStartOutput(res.Text))
}

// newEngine builds the discovery pipeline from configuration. Shared by the
// hook entrypoint and the cache/watch subcommands.
func newEngine(forceRefresh bool) (*discovery.Engine, error) {
	registry, err := newRegistry()
	if err != nil {
		return nil, err
	}

	store, err := newStore()
	if err != nil {
		return nil, err
	}

	return discovery.New(registry, store,
		discovery.WithForceRefresh(forceRefresh),
		discovery.WithAllowPatterns(viper.GetStringSlice("skills.allow")),
		discovery.WithIgnorePatterns(viper.GetStringSlice("skills.ignore")),
	), nil
}

func newRegistry() (*sources.Registry, error) {
	var opts []sources.Option
	if dir := viper.GetString("sources.personal_dir"); dir != "" {
		opts = append(opts, sources.WithPersonalDir(dir))
	}
	if dir := viper.GetString("sources.project_dir"); dir != "" {
		opts = append(opts, sources.WithProjectDir(dir))
	}
	if path := viper.GetString("sources.plugins_manifest"); path != "" {
		opts = append(opts, sources.WithPluginsManifest(path))
	}
	if depth := viper.GetInt("scan.max_depth"); depth > 0 {
		opts = append(opts, sources.WithMaxDepthCap(depth))
	}
	return sources.NewRegistry(opts...)
}

func newStore() (cache.Store, error) {
	path := viper.GetString("cache.path")
	if path == "" {
		var err error
		path, err = cache.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return cache.NewFileStore(path), nil
}

func applyLogConfig() {
	if level := viper.GetString("log_level"); level != "" {
		if err := logger.SetLogLevel(level); err != nil {
			logger.L.WithError(err).Warn("invalid log level, keeping default")
		}
	}
	if format := viper.GetString("log_format"); format != "" {
		logger.SetLogFormat(format)
	}
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (fmt, json)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.Flags().Bool("force-refresh", false, "Bypass the cache fast path and force a full scan")
	rootCmd.Flags().Bool("test", false, "Run the full pipeline and print the catalog text without a stdin payload")
	rootCmd.Flags().Duration("timeout", defaultTimeout, "Time budget for the scan")
	rootCmd.Flags().StringSlice("allow", nil, "Glob patterns; when set, only matching skills are cataloged")
	rootCmd.Flags().StringSlice("ignore", nil, "Glob patterns for skills to exclude from the catalog")
	viper.BindPFlag("force_refresh", rootCmd.Flags().Lookup("force-refresh"))
	viper.BindPFlag("timeout", rootCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("skills.allow", rootCmd.Flags().Lookup("allow"))
	viper.BindPFlag("skills.ignore", rootCmd.Flags().Lookup("ignore"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
