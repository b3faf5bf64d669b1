// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"classifieds/internal/apiclient"
	"classifieds/internal/catalog"
	"classifieds/internal/models"
	"classifieds/internal/session"
	"classifieds/internal/specifics"
	"classifieds/internal/store"
	"classifieds/internal/wizard"
)

func TestWizardMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
		ok   bool
	}{
		{"field errors", wizard.FieldErrors{"year": "required", "body_type": "unknown option"},
			"Please check: body type (unknown option), year (required).", true},
		{"category", wizard.ErrCategoryRequired, "Choose a category to continue.", true},
		{"wrapped condition", fmt.Errorf("step: %w", wizard.ErrConditionRequired), "Choose the item's condition to continue.", true},
		{"media", wizard.ErrMediaRequired, "Add at least one photo before publishing.", true},
		{"confirmation", wizard.ErrConfirmationRequired, "Confirm that the draft should be deleted.", true},
		{"store media", fmt.Errorf("wizard: publish: %w", store.ErrMediaRequired), "Add at least one photo before publishing.", true},
		{"transition", store.ErrInvalidTransition, "This advert can no longer be changed that way.", true},
		{"api title", &apiclient.APIError{Status: 400, Code: CodeInvalidTitle}, "The title needs at least 3 characters.", true},
		{"api other", &apiclient.APIError{Status: 500, Code: CodeInternal}, "", false},
		{"unexpected", fmt.Errorf("valkey down"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := wizardMessage(tt.err)
			if got != tt.want || ok != tt.ok {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestGroupTitle(t *testing.T) {
	tests := []struct {
		group catalog.Group
		want  string
	}{
		{catalog.Group{Key: "dimensions", TitleKey: "catalog.groups.size_and_weight"}, "Size and weight"},
		{catalog.Group{Key: "look"}, "Look"},
		{catalog.Group{Key: ""}, ""},
	}
	for _, tt := range tests {
		if got := groupTitle(tt.group); got != tt.want {
			t.Errorf("groupTitle(%+v) = %q, want %q", tt.group, got, tt.want)
		}
	}
}

func TestSchemaGroups(t *testing.T) {
	s := &catalog.Schema{Version: 1, Steps: []catalog.Step{
		{Key: "main", Groups: []catalog.Group{{Key: "identity"}, {Key: "look"}}},
		{Key: "more", Groups: []catalog.Group{{Key: "dimensions"}}},
		{Key: "extra", Groups: []catalog.Group{{Key: "care"}}},
	}}
	keys := func(gs []groupView) string {
		var out []string
		for _, g := range gs {
			out = append(out, g.Group.Key)
		}
		return strings.Join(out, ",")
	}

	if got := keys(schemaGroups(s, wizard.StepBasics)); got != "identity,look" {
		t.Errorf("basics groups: got %s", got)
	}
	if got := keys(schemaGroups(s, wizard.StepMechanics)); got != "dimensions,care" {
		t.Errorf("mechanics groups: got %s", got)
	}
}

func TestFormValues(t *testing.T) {
	defs := []catalog.FieldDefinition{
		{Name: "seats", Type: catalog.FieldNumber, Required: true, Integer: true},
		{Name: "extendable", Type: catalog.FieldCheckbox},
		{Name: "finish", Type: catalog.FieldMultiselect,
			Options: []catalog.Option{{Value: "oil"}, {Value: "wax"}}},
		{Name: "material", Type: catalog.FieldSelect,
			Options: []catalog.Option{{Value: "oak"}}},
	}
	form := url.Values{
		"seats":    {"6"},
		"finish":   {"wax"},
		"material": {"plastic"},
	}

	got := formValues(defs, form)
	if got["seats"] != int64(6) {
		t.Errorf("seats: got %#v", got["seats"])
	}
	if v, ok := got["extendable"]; !ok || v != nil {
		t.Errorf("unchecked checkbox: got %#v, want explicit nil", v)
	}
	if list, ok := got["finish"].([]string); !ok || len(list) != 1 || list[0] != "wax" {
		t.Errorf("finish: got %#v", got["finish"])
	}
	if _, ok := got["material"]; ok {
		t.Error("invalid option kept")
	}
}

func TestOptionViews(t *testing.T) {
	views := optionViews(map[string]string{"comfort_sunroof": "panoramic", "safety_abs": "true"})
	if len(views) != len(catalog.VehicleOptions) {
		t.Fatalf("views: got %d, want one per option", len(views))
	}
	for _, v := range views {
		switch v.Key {
		case "comfort_sunroof":
			if !v.Checked || v.Variant != "panoramic" {
				t.Errorf("sunroof: %+v", v)
			}
		case "safety_abs":
			if !v.Checked || v.Variant != "" {
				t.Errorf("abs: %+v", v)
			}
		default:
			if v.Checked {
				t.Errorf("%s unexpectedly checked", v.Key)
			}
		}
	}
}

func TestRedirect(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/post/step", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	redirect(rec, req, "/ad/1")
	if rec.Code != http.StatusNoContent || rec.Header().Get("HX-Redirect") != "/ad/1" {
		t.Errorf("htmx redirect: %d %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}

	req = httptest.NewRequest(http.MethodPost, "/post/step", nil)
	rec = httptest.NewRecorder()
	redirect(rec, req, "/ad/1")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/ad/1" {
		t.Errorf("redirect: %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

// postWizard submits a wizard form as sess.
func postWizard(h http.HandlerFunc, path string, form url.Values, sess *session.Data) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func stepField(n int) string {
	return fmt.Sprintf(`name="step" value="%d"`, n)
}

func TestWizardFlow(t *testing.T) {
	env := newTestEnv(t)
	cat := env.newCategory(t, "furniture")
	sess := sessionFor(env.newSeller(t, "secret"))

	req := httptest.NewRequest(http.MethodGet, "/post", nil)
	req = req.WithContext(ctxWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	env.Wizard.Start(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), stepField(1)) {
		t.Fatalf("start: status %d, step 1 form expected", rec.Code)
	}

	rec = postWizard(env.Wizard.Step, "/post/step", url.Values{"step": {"1"}}, sess)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "Choose a category") {
		t.Errorf("missing category: status %d", rec.Code)
	}

	rec = postWizard(env.Wizard.Step, "/post/step", url.Values{"step": {"1"}, "category_id": {cat.ID.String()}}, sess)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), stepField(2)) {
		t.Fatalf("category: status %d, step 2 expected", rec.Code)
	}

	rec = postWizard(env.Wizard.Step, "/post/step", url.Values{"step": {"2"}, "condition": {"used"}}, sess)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), stepField(3)) {
		t.Fatalf("condition: status %d, step 3 expected", rec.Code)
	}

	// A stale form for an earlier step only re-renders the current one.
	rec = postWizard(env.Wizard.Step, "/post/step", url.Values{"step": {"1"}, "category_id": {"x"}}, sess)
	if !strings.Contains(rec.Body.String(), stepField(3)) {
		t.Error("stale form changed the step")
	}

	rec = postWizard(env.Wizard.Step, "/post/step", url.Values{"step": {"3"}, "action": {"back"}}, sess)
	if !strings.Contains(rec.Body.String(), stepField(2)) {
		t.Error("back did not return to step 2")
	}

	st, err := env.Service.State(req.Context(), sess.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Category == nil || st.Category.ID != cat.ID || st.Condition == nil || st.Condition.Value != "used" {
		t.Errorf("answers not kept: %+v", st)
	}

	rec = postWizard(env.Wizard.Delete, "/post/delete", url.Values{}, sess)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unconfirmed delete: status %d, want 422", rec.Code)
	}
	rec = postWizard(env.Wizard.Delete, "/post/delete", url.Values{"confirm": {"true"}}, sess)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/profile" {
		t.Errorf("delete: status %d Location %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, err := env.Service.State(req.Context(), sess.ID); err != wizard.ErrNoSession {
		t.Errorf("session after delete: got %v, want ErrNoSession", err)
	}
}

func TestWizardEditAdvert(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.newCategory(t, "furniture")
	owner := env.newSeller(t, "secret")
	sess := sessionFor(owner)

	id, err := env.Adverts.CreateDraft(ctx, owner.ID)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	used, desc := "used", "Solid oak, seats six."
	err = env.Adverts.UpdateAdvert(ctx, owner.ID, id, models.AdvertPatch{
		CategoryID:  &cat.ID,
		Condition:   &used,
		Description: &desc,
		Specifics:   specifics.Specifics{"seats": "6", "finish": "oil,wax"},
	})
	if err != nil {
		t.Fatalf("UpdateAdvert: %v", err)
	}

	get := func(target string, as *session.Data) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(ctxWithSession(req.Context(), as))
		rec := httptest.NewRecorder()
		env.Wizard.Start(rec, req)
		return rec
	}

	tests := []struct {
		name   string
		target string
		as     *session.Data
		want   int
	}{
		{"malformed id", "/post?edit=nope", sess, http.StatusBadRequest},
		{"unknown advert", "/post?edit=" + uuid.NewString(), sess, http.StatusNotFound},
		{"other seller", "/post?edit=" + id.String(), sessionFor(env.newSeller(t, "secret")), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := get(tt.target, tt.as); rec.Code != tt.want {
				t.Errorf("status %d, want %d", rec.Code, tt.want)
			}
		})
	}

	rec := get("/post?edit="+id.String(), sess)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), stepField(3)) {
		t.Fatalf("edit: status %d, step 3 expected", rec.Code)
	}
	st, err := env.Service.State(ctx, sess.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.AdvertID != id || st.Category == nil || st.Category.ID != cat.ID || st.Condition == nil || st.Condition.Value != "used" {
		t.Errorf("reopened state = %+v", st)
	}
	if st.Attributes["seats"] != "6" || st.Attributes["finish"] != "oil,wax" || st.Description() != desc {
		t.Errorf("answers not loaded: %v %q", st.Attributes, st.Description())
	}

	rec = postWizard(env.Wizard.Step, "/post/step", url.Values{"step": {"3"}, "action": {"save"}}, sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status %d", rec.Code)
	}
	saved, err := env.Adverts.FindByID(ctx, id)
	if err != nil || saved == nil {
		t.Fatalf("FindByID: %v", err)
	}
	if saved.Status != models.AdvertStatusDraft || saved.Specifics["seats"] != "6" {
		t.Errorf("saved advert = %+v", saved)
	}
}

func TestWizardStepWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	sess := sessionFor(env.newSeller(t, "secret"))

	rec := postWizard(env.Wizard.Step, "/post/step", url.Values{"step": {"1"}}, sess)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/post" {
		t.Errorf("status %d Location %q, want redirect to /post", rec.Code, rec.Header().Get("Location"))
	}
}
