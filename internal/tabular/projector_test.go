package tabular

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacuna/internal/history"
	"lacuna/internal/model"
)

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func intp(v int) *int { return &v }

func scoredClaim(id string, composite float64) model.Claim {
	return model.Claim{
		ID:             id,
		Text:           "claim " + id,
		SubRequirement: "REQ-1",
		Status:         model.StatusApproved,
		Quality: &model.EvidenceQuality{
			Strength:        4,
			Rigor:           5,
			Relevance:       4,
			Directness:      3,
			IsRecent:        true,
			Reproducibility: 4,
			CompositeScore:  composite,
		},
		Provenance: &model.Provenance{Pages: []int{3, 4}, Section: "Results", QuotePage: 3},
	}
}

func syncToFile(t *testing.T, store *history.Store) (string, int) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review_database.csv")
	rows, err := NewProjector(store, zerolog.Nop()).Sync(path)
	require.NoError(t, err)
	return path, rows
}

func readCSV(t *testing.T, path string) (header []string, rows [][]string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	all, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	return all[0], all[1:]
}

func column(t *testing.T, header, row []string, name string) string {
	t.Helper()
	for i, h := range header {
		if h == name {
			return row[i]
		}
	}
	t.Fatalf("column %s not found", name)
	return ""
}

func TestSync_OnlyApprovedClaimsContribute(t *testing.T) {
	store := newTestStore(t)

	pending := scoredClaim("c2", 3.0)
	pending.Status = model.StatusPendingReview
	_, err := store.Append(&model.Document{
		Filename:        "mixed.pdf",
		Title:           "Mixed Paper",
		PublicationYear: intp(2024),
		Claims:          []model.Claim{scoredClaim("c1", 4.2), pending},
	}, time.Now())
	require.NoError(t, err)

	// Document with nothing approved contributes no row
	rejected := scoredClaim("c1", 2.0)
	rejected.Status = model.StatusRejected
	_, err = store.Append(&model.Document{
		Filename: "rejected.pdf",
		Claims:   []model.Claim{rejected},
	}, time.Now())
	require.NoError(t, err)

	path, n := syncToFile(t, store)
	assert.Equal(t, 1, n)

	header, rows := readCSV(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "mixed.pdf", column(t, header, rows[0], "FILENAME"))
	assert.Equal(t, "Mixed Paper", column(t, header, rows[0], "TITLE"))
	assert.Equal(t, "2024", column(t, header, rows[0], "PUBLICATION_YEAR"))

	var claims []model.Claim
	require.NoError(t, json.Unmarshal([]byte(column(t, header, rows[0], "APPROVED_CLAIMS")), &claims))
	require.Len(t, claims, 1)
	assert.Equal(t, "c1", claims[0].ID)
}

func TestSync_FlattenedColumnsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Append(&model.Document{
		Filename: "paper.pdf",
		Claims:   []model.Claim{scoredClaim("c1", 4.2), scoredClaim("c2", 3.6)},
	}, time.Now())
	require.NoError(t, err)

	path, _ := syncToFile(t, store)
	header, rows := readCSV(t, path)
	require.Len(t, rows, 1)

	var composites []float64
	require.NoError(t, json.Unmarshal([]byte(column(t, header, rows[0], "EVIDENCE_COMPOSITE_SCORE")), &composites))
	assert.Equal(t, []float64{4.2, 3.6}, composites)

	// Page lists are JSON arrays in the cell so they round-trip exactly
	var pages [][]int
	require.NoError(t, json.Unmarshal([]byte(column(t, header, rows[0], "PROVENANCE_PAGES")), &pages))
	assert.Equal(t, [][]int{{3, 4}, {3, 4}}, pages)

	var sections []string
	require.NoError(t, json.Unmarshal([]byte(column(t, header, rows[0], "PROVENANCE_SECTION")), &sections))
	assert.Equal(t, []string{"Results", "Results"}, sections)
}

func TestSync_LegacyClaimYieldsExplicitNull(t *testing.T) {
	store := newTestStore(t)

	legacy := model.Claim{
		ID:             "c1",
		Text:           "pre-enhancement claim",
		SubRequirement: "REQ-1",
		Status:         model.StatusApproved,
	}
	_, err := store.Append(&model.Document{
		Filename: "legacy.pdf",
		Claims:   []model.Claim{legacy, scoredClaim("c2", 4.2)},
	}, time.Now())
	require.NoError(t, err)

	path, _ := syncToFile(t, store)
	header, rows := readCSV(t, path)
	require.Len(t, rows, 1)

	var composites []*float64
	require.NoError(t, json.Unmarshal([]byte(column(t, header, rows[0], "EVIDENCE_COMPOSITE_SCORE")), &composites))
	require.Len(t, composites, 2)
	assert.Nil(t, composites[0], "missing quality must be null, never a default score")
	require.NotNil(t, composites[1])
	assert.Equal(t, 4.2, *composites[1])

	var pages []*[]int
	require.NoError(t, json.Unmarshal([]byte(column(t, header, rows[0], "PROVENANCE_PAGES")), &pages))
	assert.Nil(t, pages[0])
}

func TestSync_Idempotent(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"b.pdf", "a.pdf", "c.pdf"} {
		_, err := store.Append(&model.Document{
			Filename:        name,
			PublicationYear: intp(2023),
			Claims:          []model.Claim{scoredClaim("c1", 4.0)},
		}, time.Now())
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "db.csv")
	p := NewProjector(store, zerolog.Nop())

	_, err := p.Sync(path)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = p.Sync(path)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second, "sync with no intervening append must be byte-identical")
}

func TestSync_RowsSortedByFilename(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"zeta.pdf", "alpha.pdf"} {
		_, err := store.Append(&model.Document{
			Filename: name,
			Claims:   []model.Claim{scoredClaim("c1", 4.0)},
		}, time.Now())
		require.NoError(t, err)
	}

	path, _ := syncToFile(t, store)
	header, rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "alpha.pdf", column(t, header, rows[0], "FILENAME"))
	assert.Equal(t, "zeta.pdf", column(t, header, rows[1], "FILENAME"))
}

func TestSync_EmptyStoreWritesHeaderOnly(t *testing.T) {
	store := newTestStore(t)

	path, n := syncToFile(t, store)
	assert.Equal(t, 0, n)

	header, rows := readCSV(t, path)
	assert.Equal(t, columns, header)
	assert.Empty(t, rows)
}
