// Package codec converts between counters, sample rows and the text fields of
// a record stream.
//
// Header normalization turns raw counter paths into short, stable column
// names. Value sanitization turns a reading into exactly one field, with
// absent readings kept as an explicit empty field so that columns never shift.
// Both transformations are idempotent.
package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/bobolobo/perfmonitor/internal/models"
	"github.com/bobolobo/perfmonitor/internal/profile"
)

// TimestampLayout is the MM/DD/YY HH:MM format written in the first field of
// every data row.
const TimestampLayout = "01/02/06 15:04"

// Absent is the field written for a counter that could not be read.
const Absent = ""

var (
	qualifier  = regexp.MustCompile(`(?i)\\process`)
	commaRuns  = regexp.MustCompile(`,{2,}`)
	decoration = strings.NewReplacer("[", "", "]", "", "(", "", ")", "", "'", "", `"`, "")
)

// NormalizeHeader strips the `\Process` qualifier and all whitespace from a
// counter path: `\Process(bgServer)\Private Bytes` becomes
// `(bgServer)\PrivateBytes`.
func NormalizeHeader(raw string) string {
	s := raw
	for {
		next := qualifier.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	return strings.Map(func(c rune) rune {
		if unicode.IsSpace(c) {
			return -1
		}
		return c
	}, s)
}

// NormalizeHeaders applies NormalizeHeader to every column.
func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = NormalizeHeader(r)
	}
	return out
}

// HeaderFor returns the header row for the given columns.
func HeaderFor(cols []profile.CounterRef) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = NormalizeHeader(c.Raw)
	}
	return out
}

// SanitizeField removes collection-literal decoration (brackets, parens,
// quotes) and collapses duplicate or dangling commas.
func SanitizeField(s string) string {
	s = decoration.Replace(s)
	s = commaRuns.ReplaceAllString(s, ",")
	return strings.Trim(s, ", \t\r\n")
}

// FormatValue renders one reading as a single field.
func FormatValue(v models.Value) string {
	if !v.Present {
		return Absent
	}
	return SanitizeField(strconv.FormatFloat(v.V, 'f', -1, 64))
}

// ParseValue is the inverse of FormatValue. The field is sanitized first so
// that files written by older tools with list decoration still parse.
func ParseValue(field string) (models.Value, error) {
	s := SanitizeField(field)
	if s == Absent {
		return models.Absent(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Absent(), fmt.Errorf("parse value %q: %w", field, err)
	}
	return models.PresentValue(v), nil
}

// EncodeRow returns the timestamp field followed by one field per value.
func EncodeRow(row models.SampleRow) []string {
	fields := make([]string, 0, len(row.Values)+1)
	fields = append(fields, row.Timestamp)
	for _, v := range row.Values {
		fields = append(fields, FormatValue(v))
	}
	return fields
}

// FormatTimestamp formats t with TimestampLayout in local time.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// ParseTimestamp parses a TimestampLayout field in local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), time.Local)
}
