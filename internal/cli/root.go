package cli

import (
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passkeeper/internal/config"
)

// NewRootCmd builds the passkeeper command tree. Persistent flags override
// the config file, which in turn overrides built-in defaults.
func NewRootCmd(app *App) *cobra.Command {
	var cfgFile string
	var driver string
	var dsn string

	rootCmd := &cobra.Command{
		Use:           "passkeeper",
		Short:         "Local passkey vault",
		Long:          "Passkeeper stores WebAuthn passkeys locally and migrates them between devices through encrypted vault transfers.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("driver") {
				cfg.DatabaseDriver = driver
			}
			if cmd.Flags().Changed("dsn") {
				cfg.DatabaseDSN = dsn
			}
			app.config = cfg
			return app.openStore(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.closeStore()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "database driver (sqlite or postgres)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "database connection string")

	rootCmd.AddCommand(
		newListCmd(app),
		newRmCmd(app),
		newExportCmd(app),
		newImportCmd(app),
	)

	return rootCmd
}
