// Package ingest loads extraction-source output into documents ready for
// review. Extraction itself (PDF text, section segmentation) happens
// upstream; this package only validates and normalizes what it hands over.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"lacuna/internal/model"
)

// Load reads extraction output from path, which may be a single JSON file
// or a directory of .json files. Each file holds one document or an array
// of documents. Documents are returned sorted by filename.
func Load(path string) ([]*model.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read input dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no .json files in %s", path)
		}
	} else {
		files = []string{path}
	}

	seen := make(map[string]string) // document filename -> source file
	var docs []*model.Document
	for _, file := range files {
		loaded, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		for _, doc := range loaded {
			if prev, dup := seen[doc.Filename]; dup {
				return nil, fmt.Errorf("%s: document %q already loaded from %s", file, doc.Filename, prev)
			}
			seen[doc.Filename] = file
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, nil
}

func loadFile(path string) ([]*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var docs []*model.Document
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		var doc model.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		docs = []*model.Document{&doc}
	}

	for _, doc := range docs {
		if err := normalize(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return docs, nil
}

// normalize validates required fields and fills in what extraction may
// legitimately omit: claim status defaults to pending_review, and a missing
// claim ID is derived from the claim's content so the same extraction run
// twice yields the same IDs and version history continuity holds.
func normalize(doc *model.Document) error {
	if doc.Filename == "" {
		return fmt.Errorf("document is missing filename")
	}

	ids := make(map[string]bool, len(doc.Claims))
	for i := range doc.Claims {
		c := &doc.Claims[i]
		if c.Text == "" {
			return fmt.Errorf("document %q: claim %d has no extracted_text", doc.Filename, i)
		}
		if c.SubRequirement == "" {
			return fmt.Errorf("document %q: claim %d has no sub_requirement", doc.Filename, i)
		}
		if c.ID == "" {
			c.ID = deriveClaimID(doc.Filename, c.SubRequirement, c.Text)
		}
		if ids[c.ID] {
			return fmt.Errorf("document %q: duplicate claim ID %q", doc.Filename, c.ID)
		}
		ids[c.ID] = true
		if c.Status == "" {
			c.Status = model.StatusPendingReview
		}
	}
	return nil
}

func deriveClaimID(filename, requirement, text string) string {
	h := sha256.Sum256([]byte(filename + "\x00" + requirement + "\x00" + text))
	return "clm-" + hex.EncodeToString(h[:8])
}
