package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lacuna/internal/history"
	"lacuna/internal/model"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [filename]",
	Short: "Inspect the version history",
	Long: `History lists the reviewed documents, or, given a filename, every
version of that document's review state oldest first.

Example:
  lacuna history
  lacuna history paper.pdf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.History.Dir)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		filenames, err := store.Filenames()
		if err != nil {
			return err
		}
		if len(filenames) == 0 {
			fmt.Println("No documents reviewed yet")
			return nil
		}
		for _, name := range filenames {
			fmt.Println(name)
		}
		return nil
	}

	versions, err := store.AllVersions(args[0])
	if err != nil {
		return err
	}

	for i, entry := range versions {
		approved, rejected, pending := 0, 0, 0
		for _, c := range entry.Snapshot {
			switch c.Status {
			case model.StatusApproved:
				approved++
			case model.StatusRejected:
				rejected++
			default:
				pending++
			}
		}
		fmt.Printf("v%d  %s  %d claims (%d approved, %d rejected, %d pending)\n",
			i+1, entry.Timestamp.UTC().Format(time.RFC3339), len(entry.Snapshot),
			approved, rejected, pending)
	}
	return nil
}
