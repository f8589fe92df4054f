package main

import (
	"github.com/spf13/cobra"

	"github.com/atlasdatatech/arctile/config"
	"github.com/atlasdatatech/arctile/internal/log"

	// registered providers
	_ "github.com/atlasdatatech/arctile/provider/arcgis"
	_ "github.com/atlasdatatech/arctile/provider/debug"
)

var (
	configFile string
	logLevel   string

	conf *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "arctile",
	Short: "arctile serves ArcGIS FeatureServer layers as styled tile features",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			log.SetLogLevel(logLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.toml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(styleCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file named by --config and applies its
// global settings.
func loadConfig() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if logLevel == "" && cfg.LogLevel != "" {
		log.SetLogLevel(cfg.LogLevel)
	}
	conf = cfg
	return nil
}
