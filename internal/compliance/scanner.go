// Package compliance scans free text against regulated-keyword rules and
// produces position-accurate violation reports. The scanner is a pure
// function over (text, rules): no I/O, no state, safe for concurrent use.
package compliance

import (
	"fmt"
	"unicode"

	"github.com/yuchialin/clinicline/internal/model"
)

// Scanner holds matching options. The zero value matches case-sensitively,
// which mirrors how keyword lists for CJK regulatory terms are maintained.
type Scanner struct {
	CaseInsensitive bool
}

// Check finds every occurrence of every rule keyword in text.
//
// Offsets in the returned positions are rune offsets, end-exclusive, so a
// keyword of n characters always spans [start, start+n) regardless of its
// UTF-8 byte width. Matches of one keyword never overlap: the search resumes
// after the end of the previous match.
func (s Scanner) Check(text string, rules []model.ComplianceRule) model.CheckResult {
	if text == "" || len(rules) == 0 {
		return model.CheckResult{IsCompliant: true, Summary: summaryClean}
	}

	haystack := []rune(text)
	if s.CaseInsensitive {
		haystack = foldRunes(haystack)
	}

	var violations []model.Violation
	hasBlocked := false
	hasWarning := false

	for _, rule := range rules {
		if rule.Keyword == "" {
			continue
		}
		needle := []rune(rule.Keyword)
		if s.CaseInsensitive {
			needle = foldRunes(needle)
		}

		positions := findAll(haystack, needle)
		if len(positions) == 0 {
			continue
		}

		violations = append(violations, model.Violation{
			Keyword:             rule.Keyword,
			Severity:            rule.Severity,
			Positions:           positions,
			RegulationReference: rule.RegulationReference,
			Description:         rule.Description,
		})
		switch rule.Severity {
		case model.SeverityBlocked:
			hasBlocked = true
		case model.SeverityWarning:
			hasWarning = true
		}
	}

	return model.CheckResult{
		IsCompliant: len(violations) == 0,
		HasWarnings: hasWarning,
		HasBlocked:  hasBlocked,
		Violations:  violations,
		Summary:     summarize(violations, hasBlocked, hasWarning),
	}
}

// findAll returns every non-overlapping occurrence of needle in haystack,
// ascending by start.
func findAll(haystack, needle []rune) []model.Position {
	var positions []model.Position
	n := len(needle)
	if n == 0 || n > len(haystack) {
		return nil
	}
	for i := 0; i+n <= len(haystack); {
		if matchAt(haystack, needle, i) {
			positions = append(positions, model.Position{Start: i, End: i + n})
			i += n
		} else {
			i++
		}
	}
	return positions
}

func matchAt(haystack, needle []rune, at int) bool {
	for j, r := range needle {
		if haystack[at+j] != r {
			return false
		}
	}
	return true
}

func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

const (
	summaryClean = "內容合規，可以發送"
)

func summarize(violations []model.Violation, hasBlocked, hasWarning bool) string {
	if len(violations) == 0 {
		return summaryClean
	}

	blocked := 0
	warned := 0
	for _, v := range violations {
		switch v.Severity {
		case model.SeverityBlocked:
			blocked++
		case model.SeverityWarning:
			warned++
		}
	}

	if hasBlocked {
		if warned > 0 {
			return fmt.Sprintf("內容包含 %d 個禁止用語、%d 個警告用語，無法發送", blocked, warned)
		}
		return fmt.Sprintf("內容包含 %d 個禁止用語，無法發送", blocked)
	}
	if hasWarning {
		return fmt.Sprintf("內容包含 %d 個警告用語，建議修改後再發送", warned)
	}
	return summaryClean
}
