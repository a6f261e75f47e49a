package cli

import (
	"bytes"
	"regexp"
)

// Normalizer rewrites report content before two files are compared.
type Normalizer interface {
	Normalize(content []byte) []byte
}

// ReportNormalizer masks the values report generators stamp into every
// rendering, so two renderings of the same coverage compare equal. It also
// converts CRLF line endings to LF.
//
// Masked values:
//   - ISO 8601 timestamps (2026-10-14T10:30:45Z)
//   - date and time pairs (2026-10-14 10:30:45, 14/10/2026 - 10:30:45)
//   - Cobertura timestamp attributes (timestamp="1702469445")
type ReportNormalizer struct {
	patterns []maskPattern
}

type maskPattern struct {
	regex       *regexp.Regexp
	replacement []byte
}

// NewReportNormalizer returns a ReportNormalizer with the default patterns.
func NewReportNormalizer() *ReportNormalizer {
	return &ReportNormalizer{
		patterns: []maskPattern{
			{
				regex:       regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?`),
				replacement: []byte("<TIMESTAMP>"),
			},
			{
				regex:       regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}\s+\d{2}:\d{2}(:\d{2})?`),
				replacement: []byte("<TIMESTAMP>"),
			},
			{
				regex:       regexp.MustCompile(`\d{1,2}[./]\d{1,2}[./]\d{4}\s*-?\s*\d{1,2}:\d{2}(:\d{2})?`),
				replacement: []byte("<TIMESTAMP>"),
			},
			{
				regex:       regexp.MustCompile(`timestamp="\d+"`),
				replacement: []byte(`timestamp="<UNIX_TS>"`),
			},
		},
	}
}

// Normalize returns content with line endings and stamped values masked.
func (n *ReportNormalizer) Normalize(content []byte) []byte {
	result := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	for _, p := range n.patterns {
		result = p.regex.ReplaceAll(result, p.replacement)
	}
	return result
}

// ExactNormalizer compares bytes as they are.
type ExactNormalizer struct{}

// Normalize returns content unchanged.
func (ExactNormalizer) Normalize(content []byte) []byte { return content }
