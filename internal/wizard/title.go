// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wizard

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"classifieds/internal/locale"
)

// MinTitleLength is the shortest generated title kept as is.
const MinTitleLength = 3

// TitleParts are the inputs of title generation. Empty strings and a zero
// year mean the value is unknown.
type TitleParts struct {
	Make         string
	Model        string
	Year         int64
	CategoryName string
	Price        *float64
	Currency     string
}

// GenerateTitle builds an advert title. Make, model and year are used when
// all three are known; otherwise the category name, followed by the price
// when there is one. A result shorter than MinTitleLength is replaced by
// the category name alone.
func GenerateTitle(p TitleParts, tag language.Tag) string {
	if p.Make != "" && p.Model != "" && p.Year > 0 {
		return strings.Join([]string{p.Make, p.Model, strconv.FormatInt(p.Year, 10)}, " ")
	}

	title := strings.TrimSpace(p.CategoryName)
	if p.Price != nil {
		title = strings.TrimSpace(title + " " + locale.FormatPrice(tag, *p.Price, p.Currency))
	}
	if utf8.RuneCountInString(title) < MinTitleLength {
		return p.CategoryName
	}
	return title
}
