// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"classifieds/internal/apiclient"
	"classifieds/internal/catalog"
	"classifieds/internal/locale"
	"classifieds/internal/markdown"
	"classifieds/internal/middleware"
	"classifieds/internal/models"
	"classifieds/internal/render"
	"classifieds/internal/specifics"
	"classifieds/internal/store"
	"classifieds/internal/wizard"
)

// Currencies offered on the pricing step.
var Currencies = []string{"EUR", "USD", "MDL", "RON"}

var stepLabels = map[wizard.Step]string{
	wizard.StepCategory:  "Category",
	wizard.StepCondition: "Condition",
	wizard.StepBasics:    "Basics",
	wizard.StepMechanics: "Details",
	wizard.StepPricing:   "Price & description",
	wizard.StepOptions:   "Options",
	wizard.StepContact:   "Contact & photos",
	wizard.StepPreview:   "Preview",
}

var conditionLabels = []struct{ Value, Label string }{
	{models.ConditionNew, "New"},
	{models.ConditionUsed, "Used"},
	{models.ConditionForParts, "For parts"},
}

// Wizard serves the server-rendered posting flow.
type Wizard struct {
	renderer   *render.Renderer
	service    *wizard.Service
	registry   *catalog.Registry
	categories *store.CategoryStore
	adverts    *store.AdvertStore
}

// NewWizard creates the posting flow handlers.
func NewWizard(renderer *render.Renderer, service *wizard.Service, registry *catalog.Registry, categories *store.CategoryStore, adverts *store.AdvertStore) *Wizard {
	return &Wizard{
		renderer:   renderer,
		service:    service,
		registry:   registry,
		categories: categories,
		adverts:    adverts,
	}
}

// Start shows the current step of the caller's posting session, creating
// the session on first visit. With ?edit={id} it reopens one of the
// caller's adverts instead.
func (h *Wizard) Start(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if raw := r.URL.Query().Get("edit"); raw != "" {
		h.edit(w, r, raw)
		return
	}
	st, err := h.service.Start(r.Context(), sess.ID, sess.UserID)
	if err != nil {
		slog.Error("wizard start failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "The posting form is unavailable right now.")
		return
	}
	h.render(w, r, http.StatusOK, st, nil, nil)
}

// edit loads an advert owned by the caller into the posting session.
func (h *Wizard) edit(w http.ResponseWriter, r *http.Request, raw string) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	id, err := uuid.Parse(raw)
	if err != nil {
		h.renderer.Error(w, r, http.StatusBadRequest, "Invalid advert.")
		return
	}
	a, err := h.adverts.FindByID(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if a == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Advert not found.")
		return
	}
	if a.UserID != sess.UserID {
		h.renderer.Error(w, r, http.StatusForbidden, "You can only edit your own adverts.")
		return
	}

	var choice *wizard.CategoryChoice
	cat, err := h.categories.FindByID(ctx, a.CategoryID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if cat != nil && cat.IsActive {
		tag := middleware.LocaleFromCtx(ctx)
		choice = &wizard.CategoryChoice{ID: cat.ID, Path: cat.Path, Name: cat.Name(locale.Code(tag))}
	}

	st := wizard.StateFromAdvert(sess.ID, a, choice)
	if err := h.service.Resume(ctx, st); err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, st, nil, nil)
}

// Step records the submitted step and performs the requested action:
// next, back, save or publish.
func (h *Wizard) Step(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	tag := middleware.LocaleFromCtx(ctx)
	if err := r.ParseForm(); err != nil {
		h.renderer.Error(w, r, http.StatusBadRequest, "Malformed form.")
		return
	}

	st, err := h.service.State(ctx, sess.ID)
	if errors.Is(err, wizard.ErrNoSession) {
		http.Redirect(w, r, "/post", http.StatusSeeOther)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// A resubmitted form for another step only re-renders the current one.
	// The step is checked again under the session lock by every write.
	n, _ := strconv.Atoi(r.PostForm.Get("step"))
	posted := wizard.Step(n)
	if posted != st.Step {
		h.render(w, r, http.StatusOK, st, nil, nil)
		return
	}

	action := r.PostForm.Get("action")
	if action != "back" {
		st, err = h.service.Update(ctx, sess.ID, func(st *wizard.State) error {
			if err := st.At(posted); err != nil {
				return err
			}
			return h.apply(ctx, st, r.PostForm, tag)
		})
		if errors.Is(err, wizard.ErrStaleStep) {
			h.render(w, r, http.StatusOK, st, nil, nil)
			return
		}
		if err != nil {
			h.invalid(w, r, st, err)
			return
		}
	}

	switch action {
	case "back":
		st, err = h.service.Back(ctx, sess.ID, posted)
	case "save":
		st, err = h.service.SaveDraft(ctx, sess.ID, tag)
	case "publish":
		var target string
		target, err = h.service.Publish(ctx, sess.ID, tag)
		if err == nil {
			redirect(w, r, target)
			return
		}
	default:
		st, err = h.service.Next(ctx, sess.ID, posted)
	}
	if err != nil && !errors.Is(err, wizard.ErrNoNextStep) && !errors.Is(err, wizard.ErrNoPreviousStep) && !errors.Is(err, wizard.ErrStaleStep) {
		h.invalid(w, r, st, err)
		return
	}
	h.render(w, r, http.StatusOK, st, nil, nil)
}

// Fields re-renders the current step with the submitted values without
// saving them, so conditional fields and dependent lists follow the form.
func (h *Wizard) Fields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if err := r.ParseForm(); err != nil {
		h.renderer.Error(w, r, http.StatusBadRequest, "Malformed form.")
		return
	}
	st, err := h.service.State(ctx, sess.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	fs := h.fieldSet(ctx, st, middleware.LocaleFromCtx(ctx))
	defs := wizard.FieldsForStep(fs, st.Step)
	values := specifics.Decode(st.Attributes, specifics.KindsFor(fs.Fields)).Values
	for name, v := range formValues(defs, r.PostForm) {
		values[name] = v
	}
	h.render(w, r, http.StatusOK, st, values, nil)
}

// Delete removes the draft and ends the session.
func (h *Wizard) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	target, err := h.service.Delete(ctx, sess.ID, r.FormValue("confirm") == "true")
	if err != nil {
		st, _ := h.service.State(ctx, sess.ID)
		h.invalid(w, r, st, err)
		return
	}
	redirect(w, r, target)
}

// apply records the answers of the state's current step.
func (h *Wizard) apply(ctx context.Context, st *wizard.State, form url.Values, tag language.Tag) error {
	switch st.Step {
	case wizard.StepCategory:
		id, err := uuid.Parse(form.Get("category_id"))
		if err != nil {
			return wizard.ErrCategoryRequired
		}
		cat, err := h.categories.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if cat == nil || !cat.IsActive {
			return wizard.ErrCategoryRequired
		}
		st.SetCategory(wizard.CategoryChoice{ID: cat.ID, Path: cat.Path, Name: cat.Name(locale.Code(tag))})
		return nil
	case wizard.StepCondition:
		return st.SetCondition(form.Get("condition"))
	case wizard.StepOptions:
		if st.Category != nil && catalog.DetectCategoryType(st.Category.Path) == catalog.Vehicle {
			wizard.ApplyOptions(st, form)
		}
		return nil
	case wizard.StepPreview:
		return nil
	}

	fs := h.fieldSet(ctx, st, tag)
	kinds := specifics.KindsFor(fs.Fields)
	if st.Step == wizard.StepPricing {
		if err := wizard.ApplyPricing(st, form); err != nil {
			return err
		}
	}
	if st.Step == wizard.StepContact {
		wizard.ApplyContact(st, form)
	}
	return wizard.ApplyFields(st, wizard.FieldsForStep(fs, st.Step), kinds, form)
}

func (h *Wizard) fieldSet(ctx context.Context, st *wizard.State, tag language.Tag) catalog.FieldSet {
	if st == nil || st.Category == nil {
		return catalog.FieldSet{}
	}
	return h.registry.Lookup(ctx, st.Category.ID, st.Category.Path, locale.Code(tag))
}

// invalid re-renders the current step with a message for err.
func (h *Wizard) invalid(w http.ResponseWriter, r *http.Request, st *wizard.State, err error) {
	msg, ok := wizardMessage(err)
	if !ok || st == nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusUnprocessableEntity, st, nil, &msg)
}

func (h *Wizard) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, wizard.ErrNoSession) {
		http.Redirect(w, r, "/post", http.StatusSeeOther)
		return
	}
	slog.Error("wizard request failed", "path", r.URL.Path, "error", err)
	h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong. Your answers are kept; please try again.")
}

// wizardMessage turns a recoverable wizard error into text for the seller.
func wizardMessage(err error) (string, bool) {
	var fe wizard.FieldErrors
	if errors.As(err, &fe) {
		names := make([]string, 0, len(fe))
		for _, n := range sortedKeys(fe) {
			names = append(names, strings.ReplaceAll(n, "_", " ")+" ("+fe[n]+")")
		}
		return "Please check: " + strings.Join(names, ", ") + ".", true
	}

	var ve *wizard.ValidationError
	if errors.As(err, &ve) {
		switch ve.Code {
		case "category_required":
			return "Choose a category to continue.", true
		case "condition_required":
			return "Choose the item's condition to continue.", true
		case "description_too_short":
			return "The description needs at least 10 characters.", true
		case "media_required":
			return "Add at least one photo before publishing.", true
		}
		return "Please check your answers.", true
	}

	switch {
	case errors.Is(err, wizard.ErrConfirmationRequired):
		return "Confirm that the draft should be deleted.", true
	case errors.Is(err, store.ErrMediaRequired):
		return "Add at least one photo before publishing.", true
	case errors.Is(err, store.ErrInvalidTransition):
		return "This advert can no longer be changed that way.", true
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case CodeMediaRequired:
			return "Add at least one photo before publishing.", true
		case CodeInvalidTitle:
			return "The title needs at least 3 characters.", true
		case CodeInvalidDescription:
			return "The description needs at least 10 characters.", true
		}
	}
	return "", false
}

// formValues parses the posted values of defs leniently, for display only.
func formValues(defs []catalog.FieldDefinition, form url.Values) catalog.Values {
	out := make(catalog.Values, len(defs))
	for _, d := range defs {
		raw, ok := form[d.Name]
		if !ok && d.Type != catalog.FieldCheckbox && d.Type != catalog.FieldMultiselect {
			continue
		}
		d.Optional = true
		v, err := catalog.ParseInput(d, raw)
		if err != nil {
			continue
		}
		out[d.Name] = v
	}
	return out
}

type stepView struct {
	Number  int
	Name    string
	Current bool
	Done    bool
}

type choiceView struct {
	Value   string
	Label   string
	Checked bool
}

type optionView struct {
	Category string
	Key      string
	Label    string
	Checked  bool
	Variants []catalog.Option
	Variant  string
}

type groupView struct {
	Group catalog.Group
	Title string
}

// render shows the state's current step. values, when non-nil, replace the
// stored attribute values for display.
func (h *Wizard) render(w http.ResponseWriter, r *http.Request, status int, st *wizard.State, values catalog.Values, errMsg *string) {
	ctx := r.Context()
	tag := middleware.LocaleFromCtx(ctx)
	code := locale.Code(tag)

	fs := h.fieldSet(ctx, st, tag)
	if values == nil {
		values = specifics.Decode(st.Attributes, specifics.KindsFor(fs.Fields)).Values
	}

	steps := make([]stepView, 0, int(wizard.LastStep))
	for s := wizard.FirstStep; s <= wizard.LastStep; s++ {
		steps = append(steps, stepView{Number: int(s), Name: stepLabels[s], Current: s == st.Step, Done: s < st.Step})
	}

	data := map[string]any{
		"State":    st,
		"Step":     int(st.Step),
		"StepName": st.Step.String(),
		"Steps":    steps,
		"Values":   values,
	}
	if errMsg != nil {
		data["Error"] = *errMsg
	}

	pricing := wizard.Pricing{Currency: wizard.DefaultCurrency}
	if st.Pricing != nil {
		pricing = *st.Pricing
		if pricing.Currency == "" {
			pricing.Currency = wizard.DefaultCurrency
		}
	}
	data["Pricing"] = &pricing

	switch st.Step {
	case wizard.StepCategory:
		cats, err := h.categories.FlatTree(ctx)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		data["Categories"] = cats

	case wizard.StepCondition:
		current := ""
		if st.Condition != nil {
			current = st.Condition.Value
		}
		choices := make([]choiceView, 0, len(conditionLabels))
		for _, c := range conditionLabels {
			choices = append(choices, choiceView{Value: c.Value, Label: c.Label, Checked: c.Value == current})
		}
		data["Conditions"] = choices

	case wizard.StepPricing:
		if pricing.Price != nil {
			data["Price"] = strconv.FormatFloat(*pricing.Price, 'f', -1, 64)
		}
		data["Currencies"] = Currencies
		data["Fields"] = h.stepFields(ctx, st, fs, values, code)

	case wizard.StepOptions:
		if fs.Type == catalog.Vehicle {
			data["Options"] = optionViews(st.Attributes.Options())
		}

	case wizard.StepContact:
		if st.Contact != nil {
			data["Location"] = st.Contact.Location
		}
		data["Fields"] = h.stepFields(ctx, st, fs, values, code)
		data["MediaCount"] = h.service.CheckMedia(ctx, st.AdvertID).Count

	case wizard.StepPreview:
		data["Title"] = h.service.Title(ctx, st, tag)
		data["Attributes"] = st.Attributes.DisplayAttributes(fs.Fields)
		data["Description"] = markdown.Render(st.Description())

	default:
		data["Fields"] = h.stepFields(ctx, st, fs, values, code)
		data["SchemaUnavailable"] = st.Category != nil && !fs.Available && fs.Type.UsesRemoteSchema()
		if fs.Schema != nil {
			data["SchemaGroups"] = schemaGroups(fs.Schema, st.Step)
		}
	}

	h.renderer.PageStatus(w, r, status, "wizard", &render.PageData{
		Title: "Post an advert",
		Data:  data,
	})
}

// stepFields returns the step's fields with reference options loaded
// through the session's reference cache.
func (h *Wizard) stepFields(ctx context.Context, st *wizard.State, fs catalog.FieldSet, values catalog.Values, code string) []catalog.FieldDefinition {
	defs := wizard.FieldsForStep(fs, st.Step)
	return catalog.ResolveOptions(ctx, h.service.References(st.SessionID), defs, values, code)
}

// schemaGroups lists the schema groups shown on a wizard step.
func schemaGroups(s *catalog.Schema, step wizard.Step) []groupView {
	var out []groupView
	for i, st := range s.Steps {
		first := i == 0
		if (step == wizard.StepBasics && !first) || (step == wizard.StepMechanics && first) {
			continue
		}
		for _, g := range st.Groups {
			out = append(out, groupView{Group: g, Title: groupTitle(g)})
		}
	}
	return out
}

// groupTitle derives a readable title from the group's translation key.
func groupTitle(g catalog.Group) string {
	key := g.TitleKey
	if key == "" {
		key = g.Key
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	key = strings.ReplaceAll(key, "_", " ")
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func optionViews(selected map[string]string) []optionView {
	out := make([]optionView, 0, len(catalog.VehicleOptions))
	for _, o := range catalog.VehicleOptions {
		v, checked := selected[o.Key()]
		view := optionView{
			Category: o.Category,
			Key:      o.Key(),
			Label:    o.Label,
			Checked:  checked,
			Variants: o.Variants,
		}
		if checked && v != "true" {
			view.Variant = v
		}
		out = append(out, view)
	}
	return out
}

// redirect sends the browser to target, using HX-Redirect for HTMX
// requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
