package model

// Judgment is the structured output of one external judgment call,
// before validation. The scorer rejects anything out of range; a
// malformed judgment is never coerced into a default score.
type Judgment struct {
	Strength        int    `json:"strength"`        // 1-5
	Rigor           int    `json:"rigor"`           // 1-5
	Relevance       int    `json:"relevance"`       // 1-5
	Directness      int    `json:"directness"`      // 1-3
	IsRecent        bool   `json:"is_recent"`
	Reproducibility int    `json:"reproducibility"` // 1-5
	Rationale       string `json:"rationale,omitempty"`
}
