package domain

import "time"

// Team is a registry entry that markets reference by id. Teams are created
// once and may be renamed, but are never deleted; a market therefore never
// dangles.
type Team struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
