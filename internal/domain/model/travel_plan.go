package model

import (
	"strings"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
)

type PlanStatus string

const (
	PlanStatusDraft      PlanStatus = "draft"
	PlanStatusGenerating PlanStatus = "generating"
	PlanStatusReady      PlanStatus = "ready"
	PlanStatusFailed     PlanStatus = "failed"
)

// TravelPlan is a trip request: where the user is going, for how long,
// and what they care about. A guide (spots with descriptions and images)
// is generated for it on demand.
type TravelPlan struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Destination string     `json:"destination"`
	Days        int        `json:"days"`
	Interests   []string   `json:"interests"`
	Status      PlanStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *TravelPlan) IsZero() bool { return p == nil || p.ID == "" }

// NewTravelPlan validates and constructs a plan in draft state.
func NewTravelPlan(id, title, destination string, days int, interests []string) (*TravelPlan, error) {
	if id == "" || strings.TrimSpace(title) == "" || strings.TrimSpace(destination) == "" || days <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &TravelPlan{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Destination: strings.TrimSpace(destination),
		Days:        days,
		Interests:   interests,
		Status:      PlanStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
