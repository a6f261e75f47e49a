package core

import (
	"strings"

	"covflow/internal/errors"
)

// ReportKind is a logical rendering output type such as "TextSummary" or "Html".
type ReportKind string

// Well-known report kinds.
const (
	KindTextSummary ReportKind = "TextSummary"
	KindHtml        ReportKind = "Html"
	KindXml         ReportKind = "Xml"
)

// ReportRequest is an ordered set of distinct report kinds. The zero value is
// empty and never passes ParseReportRequest.
type ReportRequest struct {
	kinds []ReportKind
}

// ParseReportRequest splits raw on commas and semicolons, trims each entry,
// drops blanks and keeps the first occurrence of duplicates. An empty result
// is a ConfigurationError.
func ParseReportRequest(raw string) (ReportRequest, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })

	seen := make(map[ReportKind]bool, len(fields))
	kinds := make([]ReportKind, 0, len(fields))
	for _, f := range fields {
		k := ReportKind(strings.TrimSpace(f))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return ReportRequest{}, errors.WithHint(
			errors.Configurationf("no report types in %q", raw),
			"set report_types to at least one kind, e.g. \"TextSummary,Html\"")
	}
	return ReportRequest{kinds: kinds}, nil
}

// NewReportRequest builds a request from already-split kinds with the same
// normalization as ParseReportRequest.
func NewReportRequest(kinds ...ReportKind) (ReportRequest, error) {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return ParseReportRequest(strings.Join(parts, ","))
}

// Kinds returns a copy of the requested kinds in order.
func (r ReportRequest) Kinds() []ReportKind {
	out := make([]ReportKind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Len returns the number of requested kinds.
func (r ReportRequest) Len() int { return len(r.kinds) }

// Contains reports whether k was requested.
func (r ReportRequest) Contains(k ReportKind) bool {
	for _, x := range r.kinds {
		if x == k {
			return true
		}
	}
	return false
}

// Join re-delimits the kinds with a backend's separator.
func (r ReportRequest) Join(sep string) string {
	parts := make([]string, len(r.kinds))
	for i, k := range r.kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, sep)
}

// String renders the kinds for logs.
func (r ReportRequest) String() string { return r.Join(", ") }
