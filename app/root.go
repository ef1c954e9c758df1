// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/config"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config
	err        error
)

var rootCmd = &cobra.Command{
	Use:   "planificacion",
	Short: "Planificacion is the authorization and audit core of the institutional planning platform",
	Long: `Planificacion serves the access control, identity and audit trail API of the
institutional planning platform: role based permissions, signed credentials,
and the auditoria and bitacora logs.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory of main.toml")
}

// loadConfig reads the configuration and initializes the global logger.
func loadConfig(_ *cobra.Command, _ []string) error {
	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
