// Package tabular projects the version history into the external CSV
// database. The projection is a pure function of the store's current state:
// it filters to approved claims, flattens quality and provenance into stable
// columns, and rewrites the whole file atomically, so re-running it with no
// intervening append produces byte-identical output.
package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"lacuna/internal/history"
	"lacuna/internal/model"
)

// Column order is stable and additive-only: new EVIDENCE_*/PROVENANCE_*
// columns may be appended, existing names and semantics never change.
var columns = []string{
	"FILENAME",
	"TITLE",
	"PUBLICATION_YEAR",
	"APPROVED_CLAIMS",
	"EVIDENCE_STRENGTH",
	"EVIDENCE_RIGOR",
	"EVIDENCE_RELEVANCE",
	"EVIDENCE_DIRECTNESS",
	"EVIDENCE_IS_RECENT",
	"EVIDENCE_REPRODUCIBILITY",
	"EVIDENCE_COMPOSITE_SCORE",
	"PROVENANCE_PAGES",
	"PROVENANCE_SECTION",
	"PROVENANCE_QUOTE_PAGE",
}

// Projector rewrites the tabular store from the latest history snapshots
type Projector struct {
	store *history.Store
	log   zerolog.Logger
}

// NewProjector creates a projector over a history store
func NewProjector(store *history.Store, log zerolog.Logger) *Projector {
	return &Projector{store: store, log: log.With().Str("component", "tabular").Logger()}
}

// Sync rewrites the CSV at path from the store's current state. The file is
// written to a temp file first and renamed into place, so readers never see
// a half-written database. Returns the number of rows written.
func (p *Projector) Sync(path string) (int, error) {
	filenames, err := p.store.Filenames()
	if err != nil {
		return 0, err
	}

	// Filenames are sorted, so row order is deterministic
	var rows [][]string
	for _, filename := range filenames {
		entry, err := p.store.Latest(filename)
		if err != nil {
			return 0, fmt.Errorf("latest snapshot for %s: %w", filename, err)
		}
		row, ok, err := projectRow(entry)
		if err != nil {
			return 0, fmt.Errorf("project %s: %w", filename, err)
		}
		if ok {
			rows = append(rows, row)
		}
	}

	if err := writeAtomic(path, rows); err != nil {
		return 0, err
	}
	p.log.Info().Int("rows", len(rows)).Str("output", path).Msg("tabular store synced")
	return len(rows), nil
}

// projectRow flattens one document's latest snapshot into a CSV row.
// Documents with no approved claims contribute no row.
func projectRow(entry history.Entry) ([]string, bool, error) {
	var approved []model.Claim
	for _, c := range entry.Snapshot {
		if c.Status == model.StatusApproved {
			approved = append(approved, c)
		}
	}
	if len(approved) == 0 {
		return nil, false, nil
	}

	claimsJSON, err := json.Marshal(approved)
	if err != nil {
		return nil, false, fmt.Errorf("encode claims: %w", err)
	}

	// One element per approved claim, in claim order. A claim that predates
	// the quality or provenance fields contributes an explicit JSON null;
	// a fabricated default would silently corrupt downstream statistics.
	var (
		strength        = make([]any, len(approved))
		rigor           = make([]any, len(approved))
		relevance       = make([]any, len(approved))
		directness      = make([]any, len(approved))
		isRecent        = make([]any, len(approved))
		reproducibility = make([]any, len(approved))
		composite       = make([]any, len(approved))
		pages           = make([]any, len(approved))
		section         = make([]any, len(approved))
		quotePage       = make([]any, len(approved))
	)
	for i, c := range approved {
		if q := c.Quality; q != nil {
			strength[i] = q.Strength
			rigor[i] = q.Rigor
			relevance[i] = q.Relevance
			directness[i] = q.Directness
			isRecent[i] = q.IsRecent
			reproducibility[i] = q.Reproducibility
			composite[i] = q.CompositeScore
		}
		if pr := c.Provenance; pr != nil {
			pages[i] = pr.Pages
			section[i] = pr.Section
			quotePage[i] = pr.QuotePage
		}
	}

	year := ""
	if entry.PublicationYear != nil {
		year = strconv.Itoa(*entry.PublicationYear)
	}

	row := []string{
		entry.Filename,
		entry.Title,
		year,
		string(claimsJSON),
	}
	for _, cells := range []any{
		strength, rigor, relevance, directness, isRecent, reproducibility,
		composite, pages, section, quotePage,
	} {
		data, err := json.Marshal(cells)
		if err != nil {
			return nil, false, fmt.Errorf("encode column: %w", err)
		}
		row = append(row, string(data))
	}
	return row, true, nil
}

// writeAtomic writes header + rows to a temp file and renames it over path
func writeAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp database: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(columns); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp database: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}
