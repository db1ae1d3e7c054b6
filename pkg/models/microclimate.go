package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/KanishKumar11/organizational-climate-platform-sub013/pkg/lifecycle"
)

// MicroclimateStatus is the lifecycle status of a time-boxed live-feedback
// session.
// State machine:
//
//	draft → scheduled → active → completed
//	  ↓         ↓          ↓
//	        cancelled
//
// completed and cancelled are terminal.
type MicroclimateStatus string

const (
	MicroclimateStatusDraft     MicroclimateStatus = "draft"
	MicroclimateStatusScheduled MicroclimateStatus = "scheduled"
	MicroclimateStatusActive    MicroclimateStatus = "active"
	MicroclimateStatusCompleted MicroclimateStatus = "completed"
	MicroclimateStatusCancelled MicroclimateStatus = "cancelled"
)

// MicroclimateTransitions is the transition table for live-feedback
// sessions, the single source of truth for allowed status changes.
var MicroclimateTransitions = map[MicroclimateStatus][]MicroclimateStatus{
	MicroclimateStatusDraft:     {MicroclimateStatusScheduled, MicroclimateStatusCancelled},
	MicroclimateStatusScheduled: {MicroclimateStatusActive, MicroclimateStatusCancelled},
	MicroclimateStatusActive:    {MicroclimateStatusCompleted, MicroclimateStatusCancelled},
	MicroclimateStatusCompleted: {},
	MicroclimateStatusCancelled: {},
}

// MicroclimateMachine validates microclimate status transitions.
var MicroclimateMachine = lifecycle.NewMachine(MicroclimateTransitions)

// Microclimate is a time-boxed live-feedback session. Participants submit
// responses while the session is active; admins drive the lifecycle.
type Microclimate struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`

	CreatedBy    uuid.UUID  `json:"created_by"`
	CompanyID    uuid.UUID  `json:"company_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`

	Status        MicroclimateStatus `json:"status"`
	StatusHistory []StatusChange     `json:"status_history"`

	Questions []SurveyQuestion `json:"questions"`

	ScheduledStart  time.Time `json:"scheduled_start"`
	DurationMinutes int       `json:"duration_minutes"`
	Timezone        string    `json:"timezone"`

	InvitedCount  int `json:"invited_count"`
	ResponseCount int `json:"response_count"`

	ParticipationRate *float64 `json:"participation_rate,omitempty"`

	ContentVersion int `json:"content_version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MicroclimateContent groups the mutable content fields a restore may
// overwrite. Identity, status and status_history are deliberately absent.
type MicroclimateContent struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Questions       []SurveyQuestion `json:"questions"`
	ScheduledStart  time.Time        `json:"scheduled_start"`
	DurationMinutes int              `json:"duration_minutes"`
	Timezone        string           `json:"timezone"`
}

// Content extracts the session's restorable content fields.
func (m *Microclimate) Content() MicroclimateContent {
	return MicroclimateContent{
		Title:           m.Title,
		Description:     m.Description,
		Questions:       m.Questions,
		ScheduledStart:  m.ScheduledStart,
		DurationMinutes: m.DurationMinutes,
		Timezone:        m.Timezone,
	}
}

// ScheduledEnd returns the end of the session window.
func (m *Microclimate) ScheduledEnd() time.Time {
	return m.ScheduledStart.Add(time.Duration(m.DurationMinutes) * time.Minute)
}

// ComputeParticipationRate derives the participation percentage from the
// invite and response counters. Returns 0 when nobody was invited.
func (m *Microclimate) ComputeParticipationRate() float64 {
	if m.InvitedCount <= 0 {
		return 0
	}
	return float64(m.ResponseCount) / float64(m.InvitedCount) * 100
}
