package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/lifecycle"
)

// SurveyStatus is the lifecycle status of a published survey.
// State machine:
//
//	draft → active ⇄ paused
//	              ↘    ↙
//	            completed → archived
//
// A draft survey can also be archived directly (abandoned before launch).
// completed and archived are terminal for editing purposes; archived has no
// outgoing transitions at all.
type SurveyStatus string

const (
	SurveyStatusDraft     SurveyStatus = "draft"
	SurveyStatusActive    SurveyStatus = "active"
	SurveyStatusPaused    SurveyStatus = "paused"
	SurveyStatusCompleted SurveyStatus = "completed"
	SurveyStatusArchived  SurveyStatus = "archived"
)

// SurveyTransitions is the transition table for surveys, the single source
// of truth for allowed status changes.
var SurveyTransitions = map[SurveyStatus][]SurveyStatus{
	SurveyStatusDraft:     {SurveyStatusActive, SurveyStatusArchived},
	SurveyStatusActive:    {SurveyStatusPaused, SurveyStatusCompleted},
	SurveyStatusPaused:    {SurveyStatusActive, SurveyStatusCompleted},
	SurveyStatusCompleted: {SurveyStatusArchived},
	SurveyStatusArchived:  {},
}

// SurveyMachine validates survey status transitions.
var SurveyMachine = lifecycle.NewMachine(SurveyTransitions)

// Survey is a published survey entity. Status is mutated only through the
// lifecycle service; content fields are mutated only while status is draft
// (and through restore, which is itself gated on draft).
type Survey struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`

	CreatedBy    uuid.UUID  `json:"created_by"`
	CompanyID    uuid.UUID  `json:"company_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`

	Status        SurveyStatus   `json:"status"`
	StatusHistory []StatusChange `json:"status_history"`

	Questions []SurveyQuestion `json:"questions"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Timezone  string    `json:"timezone"`

	// Filled in by external response intake; read here to derive the
	// participation rate on completion.
	InvitedCount  int `json:"invited_count"`
	ResponseCount int `json:"response_count"`

	// ParticipationRate is persisted when the survey completes.
	ParticipationRate *float64 `json:"participation_rate,omitempty"`

	// ContentVersion counts content rewrites (restores). Distinct from the
	// draft autosave version counter.
	ContentVersion int `json:"content_version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SurveyQuestion is a question on a published survey.
type SurveyQuestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
}

// StatusChange is one entry in an entity's append-only status history.
type StatusChange struct {
	From      string    `json:"from_status"`
	To        string    `json:"to_status"`
	ActorID   uuid.UUID `json:"actor_id"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// SurveyContent groups the mutable content fields a restore may overwrite.
// Identity, status and status_history are deliberately absent: a restore
// never rewrites them.
type SurveyContent struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        string           `json:"type"`
	Questions   []SurveyQuestion `json:"questions"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	Timezone    string           `json:"timezone"`
}

// Content extracts the survey's restorable content fields.
func (s *Survey) Content() SurveyContent {
	return SurveyContent{
		Title:       s.Title,
		Description: s.Description,
		Type:        s.Type,
		Questions:   s.Questions,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		Timezone:    s.Timezone,
	}
}

// ComputeParticipationRate derives the participation percentage from the
// invite and response counters. Returns 0 when nobody was invited.
func (s *Survey) ComputeParticipationRate() float64 {
	if s.InvitedCount <= 0 {
		return 0
	}
	return float64(s.ResponseCount) / float64(s.InvitedCount) * 100
}
