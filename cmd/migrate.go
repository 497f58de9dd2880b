package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	config "timefiles.com/timefiles/internal/configs"
	"timefiles.com/timefiles/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		store, err := storage.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		version, err := storage.SchemaVersion(store.DB())
		if err != nil {
			return err
		}
		log.Printf("schema up to date at version %d", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
