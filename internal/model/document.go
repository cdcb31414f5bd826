package model

// Document is one source paper and the ordered claims extracted from it.
// Filename is the unique key across the system.
type Document struct {
	Filename        string  `json:"filename"`
	Title           string  `json:"title,omitempty"`
	PublicationYear *int    `json:"publication_year,omitempty"` // nil when extraction found no year
	Claims          []Claim `json:"claims"`
}

// Year returns the publication year and whether one is known
func (d *Document) Year() (int, bool) {
	if d.PublicationYear == nil {
		return 0, false
	}
	return *d.PublicationYear, true
}

// ApprovedClaims returns the claims currently in approved state,
// preserving extraction order
func (d *Document) ApprovedClaims() []Claim {
	var approved []Claim
	for _, c := range d.Claims {
		if c.Status == StatusApproved {
			approved = append(approved, c)
		}
	}
	return approved
}
