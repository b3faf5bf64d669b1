// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts advert descriptions from Markdown into HTML
// using goldmark. Sellers write the source, so the output is passed
// through a bluemonday policy before it reaches a page.
package markdown

import (
	"bytes"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

var (
	// policy allows basic formatting and links; links get rel="nofollow".
	policy = bluemonday.UGCPolicy().
		RequireNoFollowOnLinks(true).
		AddTargetBlankToFullyQualifiedLinks(true)
	plain = bluemonday.StripTagsPolicy()
)

// ToHTML converts Markdown source into sanitized HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// Render is ToHTML for templates. On a conversion error the source is
// shown as escaped text.
func Render(source string) template.HTML {
	out, err := ToHTML(source)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(out)
}

// Excerpt returns at most n characters of the description's text with all
// markup removed, ending in an ellipsis when shortened.
func Excerpt(source string, n int) string {
	out, err := ToHTML(source)
	if err != nil {
		out = source
	}
	text := strings.Join(strings.Fields(plain.Sanitize(out)), " ")
	text = strings.NewReplacer("&amp;", "&", "&#39;", "'", "&#34;", `"`, "&lt;", "<", "&gt;", ">").Replace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:n])) + "…"
}
