// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"classifieds/internal/locale"
)

const (
	// LocaleCookieName remembers an explicit language choice.
	LocaleCookieName = "cl_lang"

	localeKey contextKey = "locale"
)

// Locale negotiates the interface language for each request. Preference
// order: the "lang" query parameter, the locale cookie, the session's
// stored locale, then Accept-Language. A supported "lang" parameter is
// remembered in the cookie.
func Locale(n *locale.Negotiator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query().Get("lang")
			cookie := ""
			if c, err := r.Cookie(LocaleCookieName); err == nil {
				cookie = c.Value
			}
			stored := ""
			if sess := SessionFromCtx(r.Context()); sess != nil {
				stored = sess.Locale
			}

			tag := n.Match(r.Header.Get("Accept-Language"), query, cookie, stored)

			if query != "" && n.Supported(query) && query != cookie {
				http.SetCookie(w, &http.Cookie{
					Name:     LocaleCookieName,
					Value:    query,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), localeKey, tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromCtx returns the negotiated language, or English when the
// middleware did not run.
func LocaleFromCtx(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(localeKey).(language.Tag); ok {
		return tag
	}
	return language.English
}
