// Package main provides the vibe-mgsync command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibe-mgsync",
		Short: "Meta-genome coordinate synchronization for multi-genome VCF projects",
		Long: `vibe-mgsync builds, for every chromosome, genome and allele of a project,
the offset lists mapping genome, reference and meta-genome coordinates.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cobra.OnInitialize(initConfig)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-mgsync.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("db", "", "DuckDB database holding the offset lists (default: ~/.vibe-mgsync/offsets.duckdb)")
	_ = viper.BindPFlag("db", cmd.PersistentFlags().Lookup("db"))

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newTranslateCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-mgsync")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_MGSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("workers", 0)
	viper.SetDefault("db", defaultDBPath())

	// A missing config file is fine; defaults and flags still apply.
	_ = viper.ReadInConfig()
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vibe-mgsync.duckdb"
	}
	return filepath.Join(home, ".vibe-mgsync", "offsets.duckdb")
}

// newLogger builds the CLI logger; debug level with --verbose.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return cfg.Build()
}
