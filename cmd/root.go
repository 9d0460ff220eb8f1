package cmd

import (
	"os"

	"swachhconnect/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "swachhconnect",
	Short: "Citizen issue reporting backend",
	Long: `swachhconnect serves the citizen issue reporting API: citizens report civic
problems with a photo, reports are categorized automatically, and municipal
staff triage and close them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		cfg.SetupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
