package models

import (
	"strings"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
)

// Artist types accepted in a profile
const (
	ArtistTypeSolo = "solo"
	ArtistTypeDuo  = "duo"
	ArtistTypeBand = "band"
)

// ArtistProfile describes the artist a post is written for.
// Tone is an open key: unknown tones fall back to the default variant set.
type ArtistProfile struct {
	Genre       string   `json:"genre"`
	Age         int      `json:"age"`
	ArtistType  string   `json:"artistType"`
	Instruments []string `json:"instruments"`
	Audience    string   `json:"audience"`
	Tone        string   `json:"tone"`
}

// Validate checks the fields a prompt cannot be built without
func (p *ArtistProfile) Validate() error {
	if strings.TrimSpace(p.Genre) == "" {
		return apperrors.Validation("profile genre is required")
	}
	if p.Age <= 0 {
		return apperrors.Validation("profile age must be positive, got %d", p.Age)
	}
	switch p.ArtistType {
	case ArtistTypeSolo, ArtistTypeDuo, ArtistTypeBand:
	default:
		return apperrors.Validation("profile artistType must be solo, duo or band, got %q", p.ArtistType)
	}
	return nil
}
