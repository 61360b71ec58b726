/*
relver - derive a PEP440 package version from git tag history.

The root command prints exactly the resolved version string to stdout,
so it can be used directly in packaging manifests:

	relver [flags]
	relver parse <descriptor>
	relver cache show
	relver cache clear
	relver history [flags]
	relver config dump [flags]
	relver config validate [flags]
	relver version
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoshiko/relver/internal/config"
	"github.com/hoshiko/relver/internal/descriptor"
	"github.com/hoshiko/relver/internal/gitrepo"
	"github.com/hoshiko/relver/internal/history"
	"github.com/hoshiko/relver/internal/logging"
	"github.com/hoshiko/relver/internal/pep440"
	"github.com/hoshiko/relver/internal/release"
	"github.com/hoshiko/relver/internal/vcache"
	"github.com/hoshiko/relver/internal/version"
)

var (
	// CLI flags — these override config file values when explicitly set.
	flagConfigPath string
	flagGitCmd     string
	flagDir        string
	flagCacheFile  string
	flagLogDir     string
	flagVerbose    bool
	flagHistoryN   int
)

var rootCmd = &cobra.Command{
	Use:   "relver",
	Short: "Derive a PEP440 package version from git tag history",
	Long: `relver computes a PEP440 version string from "git describe --dirty"
output and caches it in a RELEASE-VERSION file. When git metadata is
unavailable (e.g., an unpacked sdist), the cached value is returned
instead. The version is printed to stdout; all diagnostics go to stderr.`,
	RunE: runResolve,
}

var parseCmd = &cobra.Command{
	Use:   "parse <descriptor>",
	Short: "Parse a describe descriptor and print the resulting version",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Version cache management",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cached version, if any",
	RunE:  runCacheShow,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the version cache file",
	RunE:  runCacheClear,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently computed versions from the history database",
	RunE:  runHistory,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the resolved configuration as YAML",
	RunE:  runConfigDump,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and exit",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print relver's own build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "config file path (default: relver.yml in current directory)")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "C", "", "working tree to derive the version for")
	rootCmd.PersistentFlags().StringVar(&flagGitCmd, "git-cmd", "", "git executable to invoke")
	rootCmd.PersistentFlags().StringVar(&flagCacheFile, "cache-file", "", "version cache file (relative paths resolve against --dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "directory for log files (empty to disable file logging)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose (DEBUG) logging")

	historyCmd.Flags().IntVarP(&flagHistoryN, "count", "n", 20, "number of entries to show")

	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and merges configuration from file and CLI flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, cfgPath, err := config.Load(flagConfigPath)
	if err != nil {
		return cfg, err
	}

	if cfgPath != "" {
		fmt.Fprintf(os.Stderr, "config: loaded %s\n", cfgPath)
	}

	// Build CLI overrides — only include flags that were explicitly set.
	overrides := config.CLIOverrides{}

	if cmd.Flags().Changed("git-cmd") {
		overrides.GitCmd = &flagGitCmd
	}
	if cmd.Flags().Changed("dir") {
		overrides.Dir = &flagDir
	}
	if cmd.Flags().Changed("cache-file") {
		overrides.CacheFile = &flagCacheFile
	}
	if cmd.Flags().Changed("log-dir") {
		overrides.LogDir = &flagLogDir
	}
	if cmd.Flags().Changed("verbose") {
		overrides.Verbose = &flagVerbose
	}

	cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, cleanup := logging.Setup(logging.Config{
		LogDir:  cfg.LogDir,
		Verbose: cfg.Verbose,
	})
	defer cleanup()

	resolver := &release.Resolver{
		Repo: &gitrepo.Client{
			GitCmd:  cfg.GitCmd,
			Dir:     cfg.Dir,
			Timeout: cfg.Timeouts.Git.Duration,
			Logger:  logger,
		},
		Cache:  vcache.Cache{Path: cfg.CachePath()},
		Logger: logger,
	}

	if cfg.History.Enabled {
		db, err := history.Open(cfg.HistoryPath())
		if err != nil {
			// History is an audit aid; never let it block a build.
			logger.Warn("could not open history database", "path", cfg.HistoryPath(), "error", err)
		} else {
			defer db.Close() //nolint:errcheck // best-effort on exit
			resolver.History = db
		}
	}

	// A wedged git subprocess should still be interruptible with ^C.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	logger.Debug("version resolved",
		"version", res.Version,
		"source", res.Source,
		"descriptor", res.Descriptor,
	)

	fmt.Println(res.Version)
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	d, err := descriptor.Parse(args[0])
	if err != nil {
		return err
	}

	fmt.Println(pep440.Normalize(d))
	return nil
}

func runCacheShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	v, err := vcache.Cache{Path: cfg.CachePath()}.Load()
	if err != nil {
		return err
	}

	fmt.Println(v)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := (vcache.Cache{Path: cfg.CachePath()}).Clear(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "cache: cleared %s\n", cfg.CachePath())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := cfg.HistoryPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no history database at %s (enable history in the config to start recording)", path)
	}

	db, err := history.Open(path)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read-only use

	entries, err := db.Recent(flagHistoryN)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "history: no recorded versions")
		return nil
	}

	for _, e := range entries {
		desc := e.Descriptor
		if desc == "" {
			desc = "-"
		}
		fmt.Printf("%s  %-7s %-20s %s\n", e.ComputedAt, e.Source, e.Version, desc)
	}
	return nil
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out, err := cfg.Dump()
	if err != nil {
		return fmt.Errorf("dump config: %w", err)
	}

	fmt.Print(string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	_, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println("config: valid")
	return nil
}
