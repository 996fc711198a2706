package storage

import "time"

// Mapping is a short-code to URL record. CreatedAt is assigned by the
// store at insert time, never by the caller. Visits only moves up, and
// IsActive never flips back to true once a mapping is deactivated.
type Mapping struct {
	ID          int64     `json:"-" db:"id"`
	Code        string    `json:"short_url" db:"code"`
	OriginalURL string    `json:"original_url" db:"original_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Visits      int64     `json:"visits" db:"visits"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// Clone returns a copy so callers can't mutate store-owned state.
func (m *Mapping) Clone() *Mapping {
	c := *m
	return &c
}
