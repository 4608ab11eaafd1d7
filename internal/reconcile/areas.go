package reconcile

import (
	"slices"
	"strings"

	id "sigcerh/pkg/domain"
)

// Method tells how a label was mapped to an area.
type Method string

const (
	MethodExact       Method = "exact"
	MethodApproximate Method = "approximate"
)

const (
	// DefaultThreshold is the minimum approximate score accepted.
	DefaultThreshold = 70

	exactConfidence       = 100
	containmentConfidence = 80
	maxSuggestions        = 3
)

// Area is the slice of a curricular area the engine matches against. Areas
// are passed in curriculum order.
type Area struct {
	ID       id.AreaID
	Code     string
	Name     string
	Position int
}

// Mapping resolves one OCR label to an area.
type Mapping struct {
	Label      string    `json:"label"`
	AreaID     id.AreaID `json:"area_id"`
	AreaCode   string    `json:"area_code"`
	AreaName   string    `json:"area_name"`
	Confidence int       `json:"confidence"`
	Method     Method    `json:"method"`
}

// Candidate is an area that scored at or above the threshold for a label.
type Candidate struct {
	AreaID   id.AreaID `json:"area_id"`
	AreaCode string    `json:"area_code"`
	AreaName string    `json:"area_name"`
	Score    int       `json:"score"`
}

// AreaMap is the outcome of mapping every label of a ledger page.
type AreaMap struct {
	Mapped      map[string]Mapping     `json:"-"`
	Ordered     []Mapping              `json:"mapped"`
	Unmapped    []string               `json:"unmapped"`
	Suggestions map[string][]Candidate `json:"suggestions,omitempty"`
}

// Lookup returns the mapping for a label as printed on the page.
func (m AreaMap) Lookup(label string) (Mapping, bool) {
	mp, ok := m.Mapped[FoldLabel(label)]
	return mp, ok
}

// MapAreas maps each distinct label onto the given areas. An exact match on
// the folded name or code wins with confidence 100; otherwise the best
// candidate at or above threshold is taken, ties going to the area listed
// first.
func MapAreas(labels []string, areas []Area, threshold int) AreaMap {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	out := AreaMap{
		Mapped:      make(map[string]Mapping, len(labels)),
		Suggestions: make(map[string][]Candidate),
	}

	folded := make([]string, len(areas))
	codes := make([]string, len(areas))
	for i, a := range areas {
		folded[i] = FoldLabel(a.Name)
		codes[i] = FoldLabel(a.Code)
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		key := FoldLabel(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if i := exactIndex(key, folded, codes); i >= 0 {
			mp := mappingFor(label, areas[i], exactConfidence, MethodExact)
			out.Mapped[key] = mp
			out.Ordered = append(out.Ordered, mp)
			continue
		}

		candidates := scoreCandidates(key, areas, folded, threshold)
		if len(candidates) == 0 {
			out.Unmapped = append(out.Unmapped, label)
			continue
		}
		best := candidates[0]
		mp := Mapping{
			Label:      label,
			AreaID:     best.AreaID,
			AreaCode:   best.AreaCode,
			AreaName:   best.AreaName,
			Confidence: best.Score,
			Method:     MethodApproximate,
		}
		out.Mapped[key] = mp
		out.Ordered = append(out.Ordered, mp)
		if len(candidates) > 1 {
			out.Suggestions[label] = candidates[:min(len(candidates), maxSuggestions)]
		}
	}
	return out
}

func exactIndex(key string, names, codes []string) int {
	for i := range names {
		if names[i] == key || codes[i] == key {
			return i
		}
	}
	return -1
}

func scoreCandidates(key string, areas []Area, names []string, threshold int) []Candidate {
	type scored struct {
		Candidate
		index int
	}
	var found []scored
	for i, a := range areas {
		score := similarity(key, names[i])
		if score < threshold {
			continue
		}
		found = append(found, scored{
			Candidate: Candidate{AreaID: a.ID, AreaCode: a.Code, AreaName: a.Name, Score: score},
			index:     i,
		})
	}
	slices.SortStableFunc(found, func(a, b scored) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return a.index - b.index
	})
	out := make([]Candidate, len(found))
	for i, f := range found {
		out[i] = f.Candidate
	}
	return out
}

// similarity scores two folded labels: containment in either direction is
// worth 80, otherwise the share of distinct tokens they have in common.
func similarity(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containmentConfidence
	}
	ta, tb := tokenSet(a), tokenSet(b)
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return shared * 100 / max(len(ta), len(tb))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func mappingFor(label string, a Area, confidence int, method Method) Mapping {
	return Mapping{
		Label:      label,
		AreaID:     a.ID,
		AreaCode:   a.Code,
		AreaName:   a.Name,
		Confidence: confidence,
		Method:     method,
	}
}
