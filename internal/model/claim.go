package model

// ClaimStatus is the review state of a claim
type ClaimStatus string

const (
	StatusPendingReview ClaimStatus = "pending_review" // Extracted, not yet reviewed
	StatusApproved      ClaimStatus = "approved"       // Passed the quality policy
	StatusRejected      ClaimStatus = "rejected"       // Failed the quality policy
)

// EvidenceQuality holds the six quality dimensions and the derived composite
type EvidenceQuality struct {
	Strength        int     `json:"strength"`        // 1-5: how strongly the text supports the claim
	Rigor           int     `json:"rigor"`           // 1-5: methodological rigor of the source
	Relevance       int     `json:"relevance"`       // 1-5: relevance to the target requirement
	Directness      int     `json:"directness"`      // 1-3: direct statement vs. inference
	IsRecent        bool    `json:"is_recent"`       // Published within the recency window
	Reproducibility int     `json:"reproducibility"` // 1-5: can the result be reproduced
	CompositeScore  float64 `json:"composite_score"` // Derived weighted scalar
}

// Provenance ties a claim back to its exact source location
type Provenance struct {
	Pages     []int  `json:"pages"`                // Page numbers the claim draws on (non-empty, positive)
	Section   string `json:"section,omitempty"`    // Section name in the source document
	QuotePage int    `json:"quote_page,omitempty"` // Page the quoted text appears on
}

// ConsensusStatus classifies multi-judge agreement
type ConsensusStatus string

const (
	ConsensusStrong ConsensusStatus = "strong" // agreement_rate >= threshold (default 0.67)
	ConsensusWeak   ConsensusStatus = "weak"   // agreement_rate >= 0.5
	ConsensusNone   ConsensusStatus = "none"   // No trusted majority; needs a human
)

// JudgeVerdict records one independent judgment inside a consensus round
type JudgeVerdict struct {
	Verdict        ClaimStatus `json:"verdict"`
	CompositeScore float64     `json:"composite_score"`
	Temperature    float32     `json:"temperature"`
}

// ConsensusMetadata is present only on claims that went through
// multi-judge resolution
type ConsensusMetadata struct {
	Verdicts            []JudgeVerdict  `json:"verdicts"`
	AgreementRate       float64         `json:"agreement_rate"` // votes_for_majority / judge_count
	Status              ConsensusStatus `json:"consensus_status"`
	ScoreStdDev         float64         `json:"score_std_dev"` // Population std-dev across judges
	Degraded            bool            `json:"degraded"`      // Fewer judgments returned than requested
	RequiresHumanReview bool            `json:"requires_human_review"`
}

// Claim is an atomic assertion extracted from one paper, attributed to one
// requirement. Claims are never deleted; state changes land as new
// version-history snapshots under the same claim ID.
type Claim struct {
	ID             string             `json:"claim_id"`
	Text           string             `json:"extracted_text"`
	SubRequirement string             `json:"sub_requirement"`
	Status         ClaimStatus        `json:"status"`
	AppealCount    int                `json:"appeal_count"`
	Quality        *EvidenceQuality   `json:"evidence_quality,omitempty"`
	Provenance     *Provenance        `json:"provenance,omitempty"`
	Consensus      *ConsensusMetadata `json:"consensus_metadata,omitempty"`
	Rationale      string             `json:"rationale,omitempty"`
}

// CanAppeal reports whether a rejected claim may re-enter review.
// Past the cap the claim is terminally finalized.
func (c *Claim) CanAppeal(maxAppeals int) bool {
	return c.Status == StatusRejected && c.AppealCount < maxAppeals
}
