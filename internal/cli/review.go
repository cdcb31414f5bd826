package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lacuna/internal/history"
	"lacuna/internal/ingest"
	"lacuna/internal/model"
	"lacuna/internal/pipeline"
	"lacuna/internal/taxonomy"
)

var (
	taxonomyPath  string
	reviewTimeout time.Duration
	reviewWorkers int
)

// reviewCmd represents the review command
var reviewCmd = &cobra.Command{
	Use:   "review <input>",
	Short: "Judge and score extracted claims",
	Long: `Review reads extraction output (a JSON file or a directory of JSON
files), judges every pending claim against the requirement taxonomy,
resolves borderline composites by multi-judge consensus, and appends
each document's reviewed state to the version history.

Example:
  lacuna review extracted/ --taxonomy pillars.yaml
  lacuna review paper.json --taxonomy pillars.yaml --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVar(&taxonomyPath, "taxonomy", "pillars.yaml", "requirement taxonomy YAML")
	reviewCmd.Flags().DurationVar(&reviewTimeout, "timeout", 30*time.Minute, "total review timeout")
	reviewCmd.Flags().IntVar(&reviewWorkers, "workers", 0, "concurrent document reviews (0 = configured default)")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if reviewWorkers > 0 {
		cfg.Concurrency.ReviewWorkers = reviewWorkers
	}
	log := newLogger()

	docs, err := ingest.Load(args[0])
	if err != nil {
		return err
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
	defer cancel()

	log.Info().
		Int("documents", len(docs)).
		Int("workers", cfg.Concurrency.ReviewWorkers).
		Msg("starting review")

	results := p.ReviewAll(ctx, docs)

	approved, rejected, pending, failed := 0, 0, 0, 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
			log.Error().Err(r.GetError()).Str("document", r.Filename).Msg("review failed")
			continue
		}
		for _, c := range r.Doc.Claims {
			switch c.Status {
			case model.StatusApproved:
				approved++
			case model.StatusRejected:
				rejected++
			default:
				pending++
			}
		}
	}

	fmt.Printf("\nReviewed %d documents: %d approved, %d rejected, %d pending claims\n",
		len(results)-failed, approved, rejected, pending)
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d documents failed; re-run to retry them\n", failed)
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}
