package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lacuna/internal/history"
	"lacuna/internal/tabular"
)

var syncOutput string

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rewrite the CSV database from the version history",
	Long: `Sync projects the latest approved-claim state of every document into
the external CSV database. The projection is a pure function of the
version history: running it twice with no intervening review produces
byte-identical output.

Example:
  lacuna sync
  lacuna sync --output review_database.csv`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncOutput, "output", "", "output CSV path (default: configured sync.output)")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	output := cfg.Sync.Output
	if syncOutput != "" {
		output = syncOutput
	}

	store, err := history.NewStore(cfg.History.Dir)
	if err != nil {
		return err
	}

	rows, err := tabular.NewProjector(store, newLogger()).Sync(output)
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d documents to %s\n", rows, output)
	return nil
}
