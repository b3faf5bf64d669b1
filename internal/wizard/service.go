// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wizard

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"classifieds/internal/catalog"
	"classifieds/internal/locale"
	"classifieds/internal/models"
	"classifieds/internal/specifics"
)

// Drafts persists adverts on behalf of the wizard.
type Drafts interface {
	CreateDraft(ctx context.Context, owner uuid.UUID) (uuid.UUID, error)
	UpdateAdvert(ctx context.Context, owner, id uuid.UUID, patch models.AdvertPatch) error
	DeleteAdvert(ctx context.Context, owner, id uuid.UUID) error
}

// MediaCounter counts the photos attached to an advert.
type MediaCounter interface {
	CountMedia(ctx context.Context, advertID uuid.UUID) (int, error)
}

// StateStore keeps posting sessions between requests. Load returns nil, nil
// for an unknown session.
type StateStore interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, sessionID string) error
}

// DefaultCurrency is used when the seller does not pick one.
const DefaultCurrency = "EUR"

const lockStripes = 64

// Service runs posting sessions.
type Service struct {
	states StateStore
	drafts Drafts
	media  MediaCounter
	refs   catalog.ReferenceSource

	flights singleflight.Group
	locks   [lockStripes]sync.Mutex
	caches  referenceCaches
}

// NewService wires a wizard service. refs may be nil, in which case titles
// fall back to the category name.
func NewService(states StateStore, drafts Drafts, media MediaCounter, refs catalog.ReferenceSource) *Service {
	return &Service{
		states: states,
		drafts: drafts,
		media:  media,
		refs:   refs,
		caches: referenceCaches{src: refs},
	}
}

func (s *Service) lock(sessionID string) func() {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	m := &s.locks[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// Start returns the session's state, creating a fresh one if needed.
func (s *Service) Start(ctx context.Context, sessionID string, owner uuid.UUID) (*State, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	st, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st != nil && st.UserID == owner {
		return st, nil
	}
	st = NewState(sessionID, owner)
	if err := s.states.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Resume replaces the session's state with st, typically a saved advert
// reopened by StateFromAdvert. Reference lists of the previous state are
// dropped.
func (s *Service) Resume(ctx context.Context, st *State) error {
	unlock := s.lock(st.SessionID)
	defer unlock()

	s.caches.drop(st.SessionID)
	if err := s.states.Save(ctx, st); err != nil {
		return err
	}
	slog.Info("advert reopened", "advert_id", st.AdvertID, "user_id", st.UserID)
	return nil
}

// State loads the session's state.
func (s *Service) State(ctx context.Context, sessionID string) (*State, error) {
	st, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrNoSession
	}
	return st, nil
}

// Update applies fn to the session state and saves it. Nothing is saved
// when fn fails.
func (s *Service) Update(ctx context.Context, sessionID string, fn func(*State) error) (*State, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	st, err := s.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return st, err
	}
	if err := s.states.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Next advances one step from the step the submission was made on. It
// fails with ErrStaleStep when the session has already moved, so repeated
// submissions advance once. Entering the contact step creates the draft
// first so photos have an advert to attach to; if that fails the session
// stays where it was.
func (s *Service) Next(ctx context.Context, sessionID string, from Step) (*State, error) {
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.Step == StepContact-1 && from == st.Step && !st.HasDraft() && st.Ready(st.Step) == nil {
		if _, err := s.EnsureDraft(ctx, sessionID); err != nil {
			return st, err
		}
	}
	return s.Update(ctx, sessionID, func(st *State) error {
		if err := st.At(from); err != nil {
			return err
		}
		return st.Next()
	})
}

// Back returns one step from the step the submission was made on.
func (s *Service) Back(ctx context.Context, sessionID string, from Step) (*State, error) {
	return s.Update(ctx, sessionID, func(st *State) error {
		if err := st.At(from); err != nil {
			return err
		}
		return st.Back()
	})
}

// EnsureDraft returns the session's draft advert id, creating the draft if
// there is none yet. Concurrent calls for one session share a single
// creation, and the state is reloaded inside it, so at most one draft is
// created per session.
func (s *Service) EnsureDraft(ctx context.Context, sessionID string) (uuid.UUID, error) {
	v, err, _ := s.flights.Do(sessionID, func() (any, error) {
		unlock := s.lock(sessionID)
		defer unlock()

		st, err := s.State(ctx, sessionID)
		if err != nil {
			return uuid.Nil, err
		}
		if st.HasDraft() {
			return st.AdvertID, nil
		}

		id, err := s.drafts.CreateDraft(ctx, st.UserID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("wizard: create draft: %w", err)
		}
		st.AdvertID = id
		if err := s.states.Save(ctx, st); err != nil {
			return uuid.Nil, err
		}
		slog.Info("draft created", "advert_id", id, "user_id", st.UserID)
		return id, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

// CheckMedia counts the photos of an advert.
func (s *Service) CheckMedia(ctx context.Context, advertID uuid.UUID) MediaCheck {
	if advertID == uuid.Nil {
		return MediaOK(0)
	}
	n, err := s.media.CountMedia(ctx, advertID)
	if err != nil {
		slog.Warn("media check failed", "advert_id", advertID, "error", err)
		return MediaCheckFailed(err)
	}
	return MediaOK(n)
}

// SaveDraft stores the current answers on the advert. A new session saves a
// draft; a reopened advert keeps its status.
func (s *Service) SaveDraft(ctx context.Context, sessionID string, tag language.Tag) (*State, error) {
	id, err := s.EnsureDraft(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	status := models.AdvertStatusDraft
	if st.Status != "" {
		status = st.Status
	}
	patch := s.BuildPatch(ctx, st, status, tag)
	if err := s.drafts.UpdateAdvert(ctx, st.UserID, id, patch); err != nil {
		return st, fmt.Errorf("wizard: save draft: %w", err)
	}
	return st, nil
}

// Publish validates the answers, activates the advert and ends the session.
// It returns the advert page to redirect to.
func (s *Service) Publish(ctx context.Context, sessionID string, tag language.Tag) (string, error) {
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if err := CheckPublish(st, s.CheckMedia(ctx, st.AdvertID)); err != nil {
		return "", err
	}

	id, err := s.EnsureDraft(ctx, sessionID)
	if err != nil {
		return "", err
	}
	patch := s.BuildPatch(ctx, st, models.AdvertStatusActive, tag)
	if err := s.drafts.UpdateAdvert(ctx, st.UserID, id, patch); err != nil {
		return "", fmt.Errorf("wizard: publish: %w", err)
	}

	s.finish(ctx, sessionID)
	slog.Info("advert published", "advert_id", id, "user_id", st.UserID)
	return "/ad/" + id.String(), nil
}

// Delete removes the draft and ends the session. It returns the page to
// redirect to.
func (s *Service) Delete(ctx context.Context, sessionID string, confirmed bool) (string, error) {
	if !confirmed {
		return "", ErrConfirmationRequired
	}
	st, err := s.State(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if st.HasDraft() {
		if err := s.drafts.DeleteAdvert(ctx, st.UserID, st.AdvertID); err != nil {
			return "", fmt.Errorf("wizard: delete draft: %w", err)
		}
	}
	s.finish(ctx, sessionID)
	return "/profile", nil
}

func (s *Service) finish(ctx context.Context, sessionID string) {
	if err := s.states.Delete(ctx, sessionID); err != nil {
		slog.Warn("wizard state delete failed", "error", err)
	}
	s.caches.drop(sessionID)
}

// References returns the reference-data cache of a session.
func (s *Service) References(sessionID string) *References {
	return s.caches.get(sessionID)
}

// SweepReferences drops reference caches idle for longer than idle and
// returns how many were removed.
func (s *Service) SweepReferences(idle time.Duration) int {
	return s.caches.sweep(idle)
}

// BuildPatch flattens the session into an advert update. Unanswered values
// are left nil so they are not sent. Specifics always carry the full
// attribute map and replace what is stored.
func (s *Service) BuildPatch(ctx context.Context, st *State, status models.AdvertStatus, tag language.Tag) models.AdvertPatch {
	p := models.AdvertPatch{Status: &status}

	if st.Category != nil {
		id := st.Category.ID
		p.CategoryID = &id
	}
	if st.Condition != nil {
		c := st.Condition.Value
		p.Condition = &c
	}
	if d := st.Description(); d != "" {
		p.Description = &d
	}
	currency := DefaultCurrency
	if st.Pricing != nil {
		if st.Pricing.Price != nil {
			price := *st.Pricing.Price
			p.Price = &price
		}
		if st.Pricing.Currency != "" {
			currency = strings.ToUpper(st.Pricing.Currency)
		}
	}
	p.Currency = &currency
	if st.Contact != nil && strings.TrimSpace(st.Contact.Location) != "" {
		loc := strings.TrimSpace(st.Contact.Location)
		p.Location = &loc
	}
	// Once a category is chosen the session owns the attribute map, so an
	// empty map is sent to clear keys removed since the last save.
	if st.Category != nil || st.Attributes != nil {
		p.Specifics = specifics.Sanitize(toAny(st.Attributes))
	}

	title := s.Title(ctx, st, tag)
	if title != "" {
		p.Title = &title
	}
	return p
}

// Title returns the seller's title, or a generated one.
func (s *Service) Title(ctx context.Context, st *State, tag language.Tag) string {
	if st.Pricing != nil {
		if t := strings.TrimSpace(st.Pricing.Title); len([]rune(t)) >= MinTitleLength {
			return t
		}
	}

	parts := TitleParts{Currency: DefaultCurrency}
	if st.Category != nil {
		parts.CategoryName = st.Category.Name
	}
	if st.Pricing != nil {
		parts.Price = st.Pricing.Price
		if st.Pricing.Currency != "" {
			parts.Currency = st.Pricing.Currency
		}
	}

	code := locale.Code(tag)
	makeID := st.Attributes["make_id"]
	if name, ok := catalog.ReferenceLabel(ctx, s.refs, catalog.SourceVehicleMakes, "", makeID, code); ok {
		parts.Make = name
	}
	if name, ok := catalog.ReferenceLabel(ctx, s.refs, catalog.SourceVehicleModels, makeID, st.Attributes["model_id"], code); ok {
		parts.Model = name
	}
	if y, err := strconv.ParseInt(st.Attributes["year"], 10, 64); err == nil {
		parts.Year = y
	}
	return GenerateTitle(parts, tag)
}

func toAny(s specifics.Specifics) map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
