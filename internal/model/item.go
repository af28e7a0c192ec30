package model

import "time"

// Candidate is a raw generated item awaiting the duplicate check
type Candidate struct {
	Content  string   `json:"content"`
	Category Category `json:"category"`
	Author   string   `json:"author,omitempty"`
	Citation string   `json:"citation,omitempty"` // e.g. "John 3:16-18"
}

// AcceptedItem is a candidate that passed every duplicate stage and is
// written to the store. Approval, usage and archival belong to other tools.
type AcceptedItem struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Category   Category  `json:"category"`
	Author     string    `json:"author,omitempty"`
	Citation   string    `json:"citation,omitempty"`
	Theme      Theme     `json:"theme,omitempty"`
	IsApproved bool      `json:"is_approved"`
	IsUsed     bool      `json:"is_used"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// BaselineItem is a historical item used as duplicate baseline.
// Archived items are included: archival is not deletion for uniqueness.
type BaselineItem struct {
	Content    string   `json:"content"`
	Category   Category `json:"category"`
	Author     string   `json:"author,omitempty"`
	Citation   string   `json:"citation,omitempty"`
	IsArchived bool     `json:"is_archived"`
}

// Candidate returns the candidate view of a baseline item
func (b BaselineItem) Candidate() Candidate {
	return Candidate{
		Content:  b.Content,
		Category: b.Category,
		Author:   b.Author,
		Citation: b.Citation,
	}
}
