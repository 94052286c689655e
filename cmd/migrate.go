package cmd

import (
	"log"

	"github.com/spf13/cobra"

	config "time-bank.com/time-bank/internal/configs"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		if _, err := openDatabase(cfg); err != nil {
			return err
		}

		log.Printf("schema migrated (%s)", cfg.DatabaseDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
