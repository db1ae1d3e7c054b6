package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStep identifies one section of the multi-step survey builder.
type DraftStep int

const (
	DraftStepBasicInfo  DraftStep = 1
	DraftStepQuestions  DraftStep = 2
	DraftStepTargeting  DraftStep = 3
	DraftStepScheduling DraftStep = 4
)

// SurveyDraft is the autosaved working copy of the survey builder. It is a
// separate entity from a published Survey: publishing creates the survey and
// discards the draft. Version is the optimistic-lock counter, bumped exactly
// once per committed autosave. SessionID gives pre-auth continuity for
// drafts started before login.
type SurveyDraft struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	SessionID     string         `json:"session_id"`
	CurrentStep   DraftStep      `json:"current_step"`
	BasicInfo     DraftBasicInfo `json:"step1_data"`
	Questions     DraftQuestions `json:"step2_data"`
	Targeting     DraftTargeting `json:"step3_data"`
	Scheduling    DraftSchedule  `json:"step4_data"`
	Version       int            `json:"version"`
	AutoSaveCount int            `json:"auto_save_count"`
	ExpiresAt     time.Time      `json:"expires_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsExpired reports whether the draft is past its expiry and therefore inert.
func (d *SurveyDraft) IsExpired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// DraftBasicInfo is step 1 of the builder.
type DraftBasicInfo struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SurveyType  string `json:"survey_type,omitempty"`
	Language    string `json:"language,omitempty"`
}

// DraftQuestions is step 2 of the builder.
type DraftQuestions struct {
	Questions []DraftQuestion `json:"questions,omitempty"`
}

// DraftQuestion is a single question being edited in the builder.
type DraftQuestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
}

// DraftTargeting is step 3 of the builder.
type DraftTargeting struct {
	DepartmentIDs   []uuid.UUID `json:"department_ids,omitempty"`
	UserIDs         []uuid.UUID `json:"user_ids,omitempty"`
	IncludeAllUsers *bool       `json:"include_all_users,omitempty"`
}

// DraftSchedule is step 4 of the builder.
type DraftSchedule struct {
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	Timezone          string     `json:"timezone,omitempty"`
	InvitationMessage string     `json:"invitation_message,omitempty"`
	SendReminders     *bool      `json:"send_reminders,omitempty"`
}

// DraftUpdate is one autosave payload. Each step block is optional; a nil
// block leaves the stored step untouched. Within a block, fields follow
// shallow-merge semantics: present fields replace, absent fields are
// preserved. CurrentStep is always set verbatim, never merged.
type DraftUpdate struct {
	CurrentStep DraftStep            `json:"current_step"`
	BasicInfo   *DraftBasicInfoPatch `json:"step1_data,omitempty"`
	Questions   *DraftQuestionsPatch `json:"step2_data,omitempty"`
	Targeting   *DraftTargetingPatch `json:"step3_data,omitempty"`
	Scheduling  *DraftSchedulePatch  `json:"step4_data,omitempty"`
}

// DraftBasicInfoPatch carries partial updates for step 1. Pointer fields
// distinguish "absent" from "set to empty".
type DraftBasicInfoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	SurveyType  *string `json:"survey_type,omitempty"`
	Language    *string `json:"language,omitempty"`
}

// DraftQuestionsPatch carries partial updates for step 2. The question list
// is replaced as a unit when present; individual questions are not merged.
type DraftQuestionsPatch struct {
	Questions *[]DraftQuestion `json:"questions,omitempty"`
}

// DraftTargetingPatch carries partial updates for step 3.
type DraftTargetingPatch struct {
	DepartmentIDs   *[]uuid.UUID `json:"department_ids,omitempty"`
	UserIDs         *[]uuid.UUID `json:"user_ids,omitempty"`
	IncludeAllUsers *bool        `json:"include_all_users,omitempty"`
}

// DraftSchedulePatch carries partial updates for step 4.
type DraftSchedulePatch struct {
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	Timezone          *string    `json:"timezone,omitempty"`
	InvitationMessage *string    `json:"invitation_message,omitempty"`
	SendReminders     *bool      `json:"send_reminders,omitempty"`
}

// ApplyUpdate merges an autosave payload into the draft. Version and
// AutoSaveCount bookkeeping happen at the persistence layer, not here.
func (d *SurveyDraft) ApplyUpdate(u DraftUpdate) {
	d.CurrentStep = u.CurrentStep
	if u.BasicInfo != nil {
		d.BasicInfo.merge(*u.BasicInfo)
	}
	if u.Questions != nil {
		d.Questions.merge(*u.Questions)
	}
	if u.Targeting != nil {
		d.Targeting.merge(*u.Targeting)
	}
	if u.Scheduling != nil {
		d.Scheduling.merge(*u.Scheduling)
	}
}

func (b *DraftBasicInfo) merge(p DraftBasicInfoPatch) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.SurveyType != nil {
		b.SurveyType = *p.SurveyType
	}
	if p.Language != nil {
		b.Language = *p.Language
	}
}

func (q *DraftQuestions) merge(p DraftQuestionsPatch) {
	if p.Questions != nil {
		q.Questions = *p.Questions
	}
}

func (t *DraftTargeting) merge(p DraftTargetingPatch) {
	if p.DepartmentIDs != nil {
		t.DepartmentIDs = *p.DepartmentIDs
	}
	if p.UserIDs != nil {
		t.UserIDs = *p.UserIDs
	}
	if p.IncludeAllUsers != nil {
		t.IncludeAllUsers = p.IncludeAllUsers
	}
}

func (s *DraftSchedule) merge(p DraftSchedulePatch) {
	if p.StartDate != nil {
		s.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		s.EndDate = p.EndDate
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
	if p.InvitationMessage != nil {
		s.InvitationMessage = *p.InvitationMessage
	}
	if p.SendReminders != nil {
		s.SendReminders = p.SendReminders
	}
}
