package compliance

import (
	"sort"

	"github.com/yuchialin/clinicline/internal/model"
)

// Segment is one piece of the highlighted rendering of a scanned text.
// Concatenating the Text of all segments reproduces the input exactly.
type Segment struct {
	Text     string         `json:"text"`
	Matched  bool           `json:"matched"`
	Severity model.Severity `json:"severity,omitempty"`
	Keyword  string         `json:"keyword,omitempty"`
}

// Highlight merges the spans of all violations into an ordered segment list.
// Spans are consumed in ascending start order; a span whose start falls
// before the cursor left by the previous span is dropped (first match wins),
// so every character of text appears in exactly one segment.
func Highlight(text string, violations []model.Violation) []Segment {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	type mark struct {
		model.Position
		severity model.Severity
		keyword  string
	}
	var marks []mark
	for _, v := range violations {
		for _, p := range v.Positions {
			marks = append(marks, mark{Position: p, severity: v.Severity, keyword: v.Keyword})
		}
	}
	if len(marks) == 0 {
		return []Segment{{Text: text}}
	}

	sort.SliceStable(marks, func(i, j int) bool { return marks[i].Start < marks[j].Start })

	var segments []Segment
	last := 0
	for _, m := range marks {
		if m.Start < last || m.End > len(runes) || m.Start >= m.End {
			continue
		}
		if m.Start > last {
			segments = append(segments, Segment{Text: string(runes[last:m.Start])})
		}
		segments = append(segments, Segment{
			Text:     string(runes[m.Start:m.End]),
			Matched:  true,
			Severity: m.severity,
			Keyword:  m.keyword,
		})
		last = m.End
	}
	if last < len(runes) {
		segments = append(segments, Segment{Text: string(runes[last:])})
	}

	return segments
}
