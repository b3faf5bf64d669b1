// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package locale negotiates the interface language of a request and formats
// prices for display.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Negotiator picks the best supported locale for a request.
type Negotiator struct {
	tags    []language.Tag
	matcher language.Matcher
}

// NewNegotiator builds a negotiator from locale codes. The first code is the
// default when nothing matches.
func NewNegotiator(codes []string) (*Negotiator, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("locale: no supported locales")
	}
	tags := make([]language.Tag, 0, len(codes))
	for _, c := range codes {
		t, err := language.Parse(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("locale: parse %q: %w", c, err)
		}
		tags = append(tags, t)
	}
	return &Negotiator{tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// Default returns the fallback locale.
func (n *Negotiator) Default() language.Tag {
	return n.tags[0]
}

// Supported reports whether code names one of the configured locales.
func (n *Negotiator) Supported(code string) bool {
	for _, t := range n.tags {
		if Code(t) == code {
			return true
		}
	}
	return false
}

// Match chooses a locale from explicit preferences (query parameter, cookie)
// followed by an Accept-Language header. Empty and malformed candidates
// are ignored.
func (n *Negotiator) Match(acceptLanguage string, preferred ...string) language.Tag {
	var want []language.Tag
	for _, p := range preferred {
		if p == "" {
			continue
		}
		if t, err := language.Parse(p); err == nil {
			want = append(want, t)
		}
	}
	if accepted, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		want = append(want, accepted...)
	}
	if len(want) == 0 {
		return n.Default()
	}
	_, idx, conf := n.matcher.Match(want...)
	if conf == language.No {
		return n.Default()
	}
	return n.tags[idx]
}

// Code returns the base language code of a tag, such as "en".
func Code(t language.Tag) string {
	b, _ := t.Base()
	return b.String()
}

// FormatPrice renders an amount in the given ISO currency for the locale.
// Unknown currency codes fall back to EUR.
func FormatPrice(t language.Tag, amount float64, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.EUR
	}
	p := message.NewPrinter(t)
	return p.Sprint(currency.Symbol(unit.Amount(amount)))
}
