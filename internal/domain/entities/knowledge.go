package entities

import "time"

// Source is a citation attached to cached treatments.
type Source struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// KnowledgeEntry is one row of the disease treatment cache.
type KnowledgeEntry struct {
	Disease    string    `json:"disease" db:"disease"`
	Treatments []string  `json:"treatments" db:"treatments"`
	Sources    []Source  `json:"sources" db:"sources"`
	WrittenAt  time.Time `json:"written_at" db:"written_at"`
}

// Expired reports whether the entry is older than ttl at now.
func (e *KnowledgeEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.WrittenAt) > ttl
}
