// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mark-search CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mark-search/internal/logger"
	"github.com/pdiddy/mark-search/internal/secrets"
	"github.com/pdiddy/mark-search/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the configuration resolved from defaults, the config file and
	// MARK_SEARCH_* environment variables.
	cfg types.Config

	// loadedSecrets holds API keys loaded from the secrets directory.
	loadedSecrets map[string]string

	log *logger.Logger
)

// rootCmd is the base command for the mark-search CLI.
var rootCmd = &cobra.Command{
	Use:   "mark-search",
	Short: "Search trademark registries for conflicting marks",
	Long: `mark-search queries several trademark registries (a local register,
TMview, EUIPO, WIPO Madrid and national offices) with one query and returns one
ranked, deduplicated list of candidate marks. Registries that are slow or down
are reported in the per-source stats; the rest still answer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		l, err := logger.New(cfg.Log.Mode)
		if err != nil {
			return err
		}
		log = l

		s, err := secrets.Load(cfg.SecretsDir, log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("loaded secrets", "names", keys)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mark-search.yaml or ~/.config/mark-search/mark-search.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mark-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mark-search"))
		}
	}

	viper.SetEnvPrefix("MARK_SEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the viper settings over DefaultConfig. A configured
// source list replaces the default one instead of merging into it.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if viper.IsSet("sources") {
		c.Sources = nil
	}
	if err := viper.Unmarshal(&c); err != nil {
		return types.Config{}, errors.Wrap(err, "decoding configuration")
	}
	return c.WithDefaults(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
