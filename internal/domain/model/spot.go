package model

import (
	"strings"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
)

type SpotImageState string

const (
	SpotImagePending     SpotImageState = "pending"
	SpotImageReady       SpotImageState = "ready"
	SpotImageUnavailable SpotImageState = "unavailable"
)

// Spot is one point of interest inside a generated guide. Its description
// is written by the text model; its image arrives asynchronously through
// the spot-image job pipeline.
type Spot struct {
	ID          string         `json:"id"`
	PlanID      string         `json:"plan_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Seq         int            `json:"seq"`
	ImageState  SpotImageState `json:"image_state"`
	ImageURL    string         `json:"image_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewSpot constructs a spot with a pending image.
func NewSpot(id, planID, name, description string, seq int) (*Spot, error) {
	if id == "" || planID == "" || strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Spot{
		ID:          id,
		PlanID:      planID,
		Name:        strings.TrimSpace(name),
		Description: description,
		Seq:         seq,
		ImageState:  SpotImagePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
