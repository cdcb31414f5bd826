package cli

import (
	"os"

	"github.com/spf13/cobra"

	"lacuna/internal/decay"
	"lacuna/internal/gap"
	"lacuna/internal/history"
	"lacuna/internal/pipeline"
	"lacuna/internal/taxonomy"
	"lacuna/internal/temporal"
)

var (
	reportJSON  string
	reportMD    string
	enableDecay bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the gap-analysis report from the version history",
	Long: `Report reads the latest snapshot of every reviewed document and rolls
approved evidence up to per-requirement and per-pillar completeness,
with temporal evolution and gap priorities.

Example:
  lacuna report --taxonomy pillars.yaml
  lacuna report --taxonomy pillars.yaml --json gaps.json --md gaps.md --decay`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&taxonomyPath, "taxonomy", "pillars.yaml", "requirement taxonomy YAML")
	reportCmd.Flags().StringVar(&reportJSON, "json", "", "output JSON path (optional)")
	reportCmd.Flags().StringVar(&reportMD, "md", "", "output Markdown path (optional)")
	reportCmd.Flags().BoolVar(&enableDecay, "decay", false, "apply evidence decay weighting")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if enableDecay {
		cfg.EvidenceDecay.Enabled = true
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

	aggregator := gap.NewAggregator(
		store,
		tax,
		decay.NewWeighter(cfg.EvidenceDecay),
		temporal.NewAnalyzer(),
		log,
	)
	report, err := aggregator.Aggregate(nil)
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer()
	if reportJSON != "" {
		if err := renderer.RenderJSON(report, reportJSON); err != nil {
			return err
		}
		log.Info().Str("path", reportJSON).Msg("wrote JSON report")
	}
	if reportMD != "" {
		if err := renderer.RenderMarkdown(report, reportMD); err != nil {
			return err
		}
		log.Info().Str("path", reportMD).Msg("wrote Markdown report")
	}

	renderer.RenderSummary(os.Stdout, report)
	return nil
}
