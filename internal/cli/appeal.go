package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lacuna/internal/history"
	"lacuna/internal/pipeline"
	"lacuna/internal/taxonomy"
)

var appealTimeout time.Duration

// appealCmd represents the appeal command
var appealCmd = &cobra.Command{
	Use:   "appeal <filename> <claim-id>",
	Short: "Re-enter a rejected claim into review",
	Long: `Appeal re-judges one rejected claim and appends the outcome as a new
version-history entry under the same claim ID. Appeals are bounded by
review.max_appeals; at the cap the claim is finalized.

Example:
  lacuna appeal paper.pdf clm-9f2a44c1 --taxonomy pillars.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runAppeal,
}

func init() {
	rootCmd.AddCommand(appealCmd)

	appealCmd.Flags().StringVar(&taxonomyPath, "taxonomy", "pillars.yaml", "requirement taxonomy YAML")
	appealCmd.Flags().DurationVar(&appealTimeout, "timeout", 5*time.Minute, "appeal timeout")
}

func runAppeal(cmd *cobra.Command, args []string) error {
	filename, claimID := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	tax, err := taxonomy.Load(taxonomyPath)
	if err != nil {
		return err
	}

	store, err := history.NewStore(cfg.History.Dir)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, tax, store, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), appealTimeout)
	defer cancel()

	doc, err := p.Appeal(ctx, filename, claimID)
	if err != nil {
		return err
	}

	for _, c := range doc.Claims {
		if c.ID == claimID {
			fmt.Printf("Claim %s: %s (appeal %d of %d)\n",
				c.ID, c.Status, c.AppealCount, cfg.Review.MaxAppeals)
			if c.Quality != nil {
				fmt.Printf("Composite score: %.2f\n", c.Quality.CompositeScore)
			}
		}
	}
	return nil
}
