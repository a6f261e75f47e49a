package core

import (
	"path/filepath"
	"strings"
)

// Well-known artifact names written by the rendering backends.
const (
	TextSummaryFileName = "Summary.txt"
	HtmlIndexFileName   = "index.html"
	XmlPattern          = "*.xml"
)

// htmlFamilyMarker selects the HTML report variants (Html, HtmlInline,
// HtmlChart, HtmlSummary, Html_Dark, MHtml, ...). They all produce one index
// file.
const htmlFamilyMarker = "Html"

// Rule is how an Expectation is checked.
type Rule int

const (
	// RuleFile requires one named file, non-empty.
	RuleFile Rule = iota
	// RuleGlob requires at least one non-empty file whose base name matches a
	// pattern, directly inside the output directory.
	RuleGlob
)

func (r Rule) String() string {
	switch r {
	case RuleFile:
		return "file"
	case RuleGlob:
		return "glob"
	default:
		return "unknown"
	}
}

// Expectation maps requested kinds to the path that must exist and be
// non-empty for them to count as produced. Several kinds may share one
// Expectation (all HTML variants share the index file).
type Expectation struct {
	Kinds []ReportKind
	Rule  Rule
	// Path is a file path for RuleFile. For RuleGlob its directory is taken
	// literally and only its base name is a pattern.
	Path string
}

// Label names the expectation in logs, e.g. "TextSummary" or "Html+HtmlInline".
func (e Expectation) Label() string {
	parts := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, "+")
}

// IsHtmlFamily reports whether k is one of the HTML variants, i.e. whether
// its name contains "Html".
func IsHtmlFamily(k ReportKind) bool {
	return strings.Contains(string(k), htmlFamilyMarker)
}

// ExpectationsFor derives the Artifact Expectations of req under dir, in
// request order. Kinds without a rule are returned separately as
// unverifiable.
func ExpectationsFor(dir string, req ReportRequest) (expectations []Expectation, unverifiable []ReportKind) {
	html := -1
	for _, k := range req.kinds {
		switch {
		case k == KindTextSummary:
			expectations = append(expectations, Expectation{
				Kinds: []ReportKind{k},
				Rule:  RuleFile,
				Path:  filepath.Join(dir, TextSummaryFileName),
			})
		case IsHtmlFamily(k):
			if html >= 0 {
				expectations[html].Kinds = append(expectations[html].Kinds, k)
				continue
			}
			html = len(expectations)
			expectations = append(expectations, Expectation{
				Kinds: []ReportKind{k},
				Rule:  RuleFile,
				Path:  filepath.Join(dir, HtmlIndexFileName),
			})
		case k == KindXml:
			expectations = append(expectations, Expectation{
				Kinds: []ReportKind{k},
				Rule:  RuleGlob,
				Path:  filepath.Join(dir, XmlPattern),
			})
		default:
			unverifiable = append(unverifiable, k)
		}
	}
	return expectations, unverifiable
}
