// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// openWizard performs the GET that renders the posting form and returns
// the issued cookie and the token the template would embed.
func openWizard(t *testing.T, csrf func(http.Handler) http.Handler) (*http.Cookie, string) {
	t.Helper()
	var rendered string
	handler := csrf(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rendered = CSRFTokenFromCtx(r.Context())
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/post", nil))

	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c, rendered
		}
	}
	t.Fatal("no CSRF cookie issued")
	return nil, ""
}

func TestCSRFWizardSubmissions(t *testing.T) {
	csrf := NewCSRF(false)
	cookie, token := openWizard(t, csrf)
	if token == "" || token != cookie.Value {
		t.Fatalf("rendered token %q does not match cookie %q", token, cookie.Value)
	}

	tests := []struct {
		name       string
		path       string
		form       url.Values
		header     string
		withCookie bool
		want       int
	}{
		{
			name: "next step with form token", path: "/post/step",
			form:       url.Values{"step": {"3"}, "action": {"next"}, "csrf_token": {token}},
			withCookie: true, want: http.StatusOK,
		},
		{
			name: "fields fragment with htmx header", path: "/post/fields",
			form:       url.Values{"category_id": {"12"}, "catalog_field_make": {"audi-1"}},
			header:     token,
			withCookie: true, want: http.StatusOK,
		},
		{
			name: "delete draft with form token", path: "/post/delete",
			form:       url.Values{"csrf_token": {token}},
			withCookie: true, want: http.StatusOK,
		},
		{
			name: "step without token", path: "/post/step",
			form:       url.Values{"step": {"3"}, "action": {"next"}},
			withCookie: true, want: http.StatusForbidden,
		},
		{
			name: "step with forged token", path: "/post/step",
			form:       url.Values{"step": {"3"}, "action": {"next"}, "csrf_token": {strings.Repeat("0", 64)}},
			withCookie: true, want: http.StatusForbidden,
		},
		{
			name: "token replayed without cookie", path: "/post/step",
			form: url.Values{"step": {"8"}, "action": {"publish"}, "csrf_token": {token}},
			want: http.StatusForbidden,
		},
		{
			name: "logout with header", path: "/logout",
			header: token, withCookie: true, want: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var action string
			handler := csrf(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				action = r.FormValue("action")
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.header != "" {
				req.Header.Set("HX-Request", "true")
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			if tt.withCookie {
				req.AddCookie(cookie)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			// The wizard still reads its fields after the token check.
			if tt.want == http.StatusOK && action != tt.form.Get("action") {
				t.Errorf("action = %q, want %q", action, tt.form.Get("action"))
			}
		})
	}
}

func TestCSRFCookie(t *testing.T) {
	for _, secure := range []bool{true, false} {
		csrf := NewCSRF(secure)
		cookie, _ := openWizard(t, csrf)
		if cookie.Secure != secure {
			t.Errorf("secure=%v: cookie Secure = %v", secure, cookie.Secure)
		}
		if cookie.SameSite != http.SameSiteStrictMode || cookie.HttpOnly || cookie.Path != "/" {
			t.Errorf("secure=%v: cookie = %+v", secure, cookie)
		}
		if len(cookie.Value) != 2*csrfTokenLength {
			t.Errorf("token length = %d", len(cookie.Value))
		}
	}

	// A returning browser keeps its token; no new cookie is issued.
	csrf := NewCSRF(false)
	cookie, _ := openWizard(t, csrf)
	var seen string
	handler := csrf(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CSRFTokenFromCtx(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/search?category_id=12", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen != cookie.Value {
		t.Errorf("context token %q, want existing %q", seen, cookie.Value)
	}
	if got := rr.Result().Cookies(); len(got) != 0 {
		t.Errorf("cookie reissued: %v", got)
	}
	if got := CSRFTokenFromCtx(httptest.NewRequest(http.MethodGet, "/", nil).Context()); got != "" {
		t.Errorf("token outside middleware = %q", got)
	}
}

func TestCSRFMethods(t *testing.T) {
	tests := []struct {
		method string
		want   int
	}{
		{http.MethodGet, http.StatusOK},
		{http.MethodHead, http.StatusOK},
		{http.MethodOptions, http.StatusOK},
		{http.MethodPost, http.StatusForbidden},
		{http.MethodPut, http.StatusForbidden},
		{http.MethodPatch, http.StatusForbidden},
		{http.MethodDelete, http.StatusForbidden},
	}
	csrf := NewCSRF(false)
	cookie, _ := openWizard(t, csrf)
	handler := csrf(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/post/step", nil)
			req.AddCookie(cookie)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
