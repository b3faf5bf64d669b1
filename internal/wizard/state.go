// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package wizard implements the eight-step advert posting flow: step
// transitions, lazy draft creation, publish validation, and the flattening
// of collected answers into an advert update.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"classifieds/internal/models"
	"classifieds/internal/specifics"
)

// Step is a position in the posting flow.
type Step int

const (
	StepCategory Step = iota + 1
	StepCondition
	StepBasics
	StepMechanics
	StepPricing
	StepOptions
	StepContact
	StepPreview
)

// FirstStep and LastStep bound the flow.
const (
	FirstStep = StepCategory
	LastStep  = StepPreview
)

// MinDescriptionLength is the shortest description that can be published.
const MinDescriptionLength = 10

// String returns the step's short name.
func (s Step) String() string {
	switch s {
	case StepCategory:
		return "category"
	case StepCondition:
		return "condition"
	case StepBasics:
		return "basics"
	case StepMechanics:
		return "mechanics"
	case StepPricing:
		return "pricing"
	case StepOptions:
		return "options"
	case StepContact:
		return "contact"
	case StepPreview:
		return "preview"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is within the flow.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

var (
	ErrNoNextStep           = errors.New("wizard: preview is the last step")
	ErrNoPreviousStep       = errors.New("wizard: category is the first step")
	ErrConfirmationRequired = errors.New("wizard: deleting a draft must be confirmed")
	ErrNoSession            = errors.New("wizard: no posting session")
	// ErrStaleStep means a submission was made for a step the session has
	// already left.
	ErrStaleStep = errors.New("wizard: form is for another step")
)

// ValidationError is a recoverable problem with the user's answers. It
// blocks the transition that detected it.
type ValidationError struct {
	Field string
	Code  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wizard: %s: %s", e.Field, e.Code)
}

var (
	ErrCategoryRequired    = &ValidationError{Field: "category_id", Code: "category_required"}
	ErrConditionRequired   = &ValidationError{Field: "condition", Code: "condition_required"}
	ErrDescriptionTooShort = &ValidationError{Field: "description", Code: "description_too_short"}
	ErrMediaRequired       = &ValidationError{Field: "media", Code: "media_required"}
)

// CategoryChoice is the answer to step 1.
type CategoryChoice struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path"`
	Name string    `json:"name"`
}

// ConditionChoice is the answer to step 2.
type ConditionChoice struct {
	Value string `json:"value"`
}

// Pricing is the answer to step 5.
type Pricing struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}

// Contact is the answer to step 7.
type Contact struct {
	Location string `json:"location,omitempty"`
}

// State is one posting session. Each step's answer lives in its own field
// and is nil until given. Category attributes from steps 3 to 6 are kept in
// their stored string form.
type State struct {
	SessionID  string              `json:"session_id"`
	UserID     uuid.UUID           `json:"user_id"`
	Step       Step                `json:"step"`
	AdvertID   uuid.UUID           `json:"advert_id"`
	Category   *CategoryChoice     `json:"category,omitempty"`
	Condition  *ConditionChoice    `json:"condition,omitempty"`
	Attributes specifics.Specifics `json:"attributes,omitempty"`
	Pricing    *Pricing            `json:"pricing,omitempty"`
	Contact    *Contact            `json:"contact,omitempty"`
	// Status is the stored status of a reopened advert. Saving keeps it;
	// new sessions save drafts.
	Status    models.AdvertStatus `json:"status,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewState starts a session at the first step.
func NewState(sessionID string, owner uuid.UUID) *State {
	return &State{SessionID: sessionID, UserID: owner, Step: FirstStep}
}

// StateFromAdvert reopens a saved advert for editing. The session starts on
// the first step whose answer is missing, or on the basics step when the
// category and condition are known. cat is nil when the advert's category
// can no longer be chosen.
func StateFromAdvert(sessionID string, a *models.Advert, cat *CategoryChoice) *State {
	st := NewState(sessionID, a.UserID)
	st.AdvertID = a.ID
	st.Status = a.Status
	st.Category = cat
	if a.Condition != nil && models.ValidCondition(*a.Condition) {
		st.Condition = &ConditionChoice{Value: *a.Condition}
	}
	if len(a.Specifics) > 0 {
		st.Attributes = make(specifics.Specifics, len(a.Specifics))
		for k, v := range a.Specifics {
			st.Attributes[k] = v
		}
	}

	p := &Pricing{Price: a.Price, Currency: a.Currency}
	if a.Title != models.DraftTitle {
		p.Title = a.Title
	}
	if a.Description != nil {
		p.Description = *a.Description
	}
	st.Pricing = p
	if a.Location != nil {
		st.Contact = &Contact{Location: *a.Location}
	}

	switch {
	case st.Ready(StepCategory) != nil:
		st.Step = StepCategory
	case st.Ready(StepCondition) != nil:
		st.Step = StepCondition
	default:
		st.Step = StepBasics
	}
	return st
}

// HasDraft reports whether a draft advert has been created.
func (s *State) HasDraft() bool {
	return s.AdvertID != uuid.Nil
}

// Ready reports whether the answers needed to leave step are present.
func (s *State) Ready(step Step) error {
	switch step {
	case StepCategory:
		if s.Category == nil || s.Category.ID == uuid.Nil {
			return ErrCategoryRequired
		}
	case StepCondition:
		if s.Condition == nil || !models.ValidCondition(s.Condition.Value) {
			return ErrConditionRequired
		}
	}
	return nil
}

// At returns ErrStaleStep unless the session is on step.
func (s *State) At(step Step) error {
	if s.Step != step {
		return ErrStaleStep
	}
	return nil
}

// Next moves one step forward once the current step is answered.
func (s *State) Next() error {
	if s.Step >= LastStep {
		s.Step = LastStep
		return ErrNoNextStep
	}
	if s.Step < FirstStep {
		s.Step = FirstStep
	}
	if err := s.Ready(s.Step); err != nil {
		return err
	}
	s.Step++
	return nil
}

// Back moves one step backward.
func (s *State) Back() error {
	if s.Step <= FirstStep {
		s.Step = FirstStep
		return ErrNoPreviousStep
	}
	if s.Step > LastStep {
		s.Step = LastStep
	}
	s.Step--
	return nil
}

// SetCategory records the category. Choosing a different category discards
// the attributes collected for the previous one.
func (s *State) SetCategory(c CategoryChoice) {
	if s.Category != nil && s.Category.ID != c.ID {
		s.Attributes = nil
	}
	s.Category = &c
}

// SetCondition records the item condition.
func (s *State) SetCondition(value string) error {
	if !models.ValidCondition(value) {
		return ErrConditionRequired
	}
	s.Condition = &ConditionChoice{Value: value}
	return nil
}

// MergeAttributes replaces the stored values of the given keys. Keys listed
// in clear and absent from values are removed, so unchecking a box deletes
// its key.
func (s *State) MergeAttributes(values specifics.Specifics, clear []string) {
	if s.Attributes == nil {
		s.Attributes = make(specifics.Specifics)
	}
	for _, k := range clear {
		delete(s.Attributes, k)
	}
	for k, v := range values {
		s.Attributes[k] = v
	}
}

// Description returns the trimmed description.
func (s *State) Description() string {
	if s.Pricing == nil {
		return ""
	}
	return strings.TrimSpace(s.Pricing.Description)
}

// MediaCheck is the outcome of counting an advert's photos before publish.
// A failed count does not block publishing; the server validates instead.
type MediaCheck struct {
	Count int
	Err   error
}

// MediaOK is a successful count.
func MediaOK(count int) MediaCheck { return MediaCheck{Count: count} }

// MediaCheckFailed is a count that could not be made.
func MediaCheckFailed(err error) MediaCheck { return MediaCheck{Err: err} }

// Failed reports whether the count could not be made.
func (m MediaCheck) Failed() bool { return m.Err != nil }

// Blocks reports whether the check proves there are no photos.
func (m MediaCheck) Blocks() bool { return m.Err == nil && m.Count == 0 }

// CheckPublish validates the answers required to publish.
func CheckPublish(s *State, media MediaCheck) error {
	if err := s.Ready(StepCategory); err != nil {
		return err
	}
	if err := s.Ready(StepCondition); err != nil {
		return err
	}
	if utf8.RuneCountInString(s.Description()) < MinDescriptionLength {
		return ErrDescriptionTooShort
	}
	if media.Blocks() {
		return ErrMediaRequired
	}
	return nil
}
