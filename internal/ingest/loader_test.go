package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacuna/internal/model"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_SingleDocument(t *testing.T) {
	path := writeInput(t, "doc.json", `{
		"filename": "paper.pdf",
		"title": "A Paper",
		"publication_year": 2024,
		"claims": [
			{"claim_id": "c1", "extracted_text": "finding one", "sub_requirement": "REQ-1"}
		]
	}`)

	docs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "paper.pdf", doc.Filename)
	require.NotNil(t, doc.PublicationYear)
	assert.Equal(t, 2024, *doc.PublicationYear)
	require.Len(t, doc.Claims, 1)
	assert.Equal(t, model.StatusPendingReview, doc.Claims[0].Status)
}

func TestLoad_ArrayAndDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch.json"), []byte(`[
		{"filename": "b.pdf", "claims": [{"extracted_text": "t", "sub_requirement": "REQ-1"}]},
		{"filename": "a.pdf", "claims": [{"extracted_text": "t", "sub_requirement": "REQ-1"}]}
	]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "single.json"), []byte(`
		{"filename": "c.pdf", "claims": [{"extracted_text": "t", "sub_requirement": "REQ-2"}]}
	`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	docs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.pdf", docs[0].Filename)
	assert.Equal(t, "b.pdf", docs[1].Filename)
	assert.Equal(t, "c.pdf", docs[2].Filename)
}

func TestLoad_DerivedClaimIDsAreStable(t *testing.T) {
	const content = `{
		"filename": "paper.pdf",
		"claims": [{"extracted_text": "same finding", "sub_requirement": "REQ-1"}]
	}`

	first, err := Load(writeInput(t, "a.json", content))
	require.NoError(t, err)
	second, err := Load(writeInput(t, "b.json", content))
	require.NoError(t, err)

	assert.NotEmpty(t, first[0].Claims[0].ID)
	assert.Equal(t, first[0].Claims[0].ID, second[0].Claims[0].ID,
		"re-ingesting the same extraction must yield the same claim IDs")
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing filename", `{"claims": []}`},
		{"missing extracted_text", `{"filename": "p.pdf", "claims": [{"sub_requirement": "REQ-1"}]}`},
		{"missing sub_requirement", `{"filename": "p.pdf", "claims": [{"extracted_text": "t"}]}`},
		{"duplicate claim IDs", `{"filename": "p.pdf", "claims": [
			{"claim_id": "c1", "extracted_text": "t", "sub_requirement": "REQ-1"},
			{"claim_id": "c1", "extracted_text": "u", "sub_requirement": "REQ-1"}
		]}`},
		{"malformed JSON", `{"filename": "p.pdf",`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeInput(t, "doc.json", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_DuplicateFilenameAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	const doc = `{"filename": "p.pdf", "claims": [{"extracted_text": "t", "sub_requirement": "REQ-1"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.json"), []byte(doc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.json"), []byte(doc), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}
