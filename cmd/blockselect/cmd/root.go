package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/blockselect"
	"github.com/hupe1980/blockselect/internal/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	v      = config.New()
	cfg    *config.Config
	logger *blockselect.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "blockselect",
	Short: "Exact parallel top-k selection",
	Long: `blockselect runs exact top-k selection with thread queues, group queues
and bitonic merge networks.

The knn command performs brute-force nearest-neighbor search over .fvecs
files (optionally zstd, lz4 or gzip compressed) or random vectors.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		cfg = loaded

		l, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./blockselect.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")

	bindFlags(rootCmd, map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	})

	binName := BinName()
	rootCmd.Example = `  # Search 10 random queries against 10000 random 128-d vectors
  ` + binName + ` knn -k 10

  # Search an .fvecs dataset and print JSON
  ` + binName + ` knn --base base.fvecs.zst --queries query.fvecs -k 100 -o json

  # Restrict candidates to an id range and expose Prometheus metrics
  ` + binName + ` knn --filter 0-4999 --metrics --metrics-addr :9090`
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// bindFlags binds config keys to flags so that set flags override the
// config file and the environment.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if f == nil {
			panic(fmt.Sprintf("unknown flag %q", name))
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}
}

func newLogger(lc config.LogConfig) (*blockselect.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(lc.Level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	if lc.Format == "json" {
		return blockselect.NewJSONLogger(level), nil
	}
	return blockselect.NewTextLogger(level), nil
}
