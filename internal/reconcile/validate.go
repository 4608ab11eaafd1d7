package reconcile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	id "sigcerh/pkg/domain"
)

// IssueKind classifies a validation finding.
type IssueKind string

const (
	IssueMissingName     IssueKind = "missing_name"
	IssueMissingMaternal IssueKind = "missing_maternal_surname"
	IssueInvalidID       IssueKind = "invalid_national_id"
	IssueMissingID       IssueKind = "missing_national_id"
	IssueScoreRange      IssueKind = "score_out_of_range"
	IssueInvalidScore    IssueKind = "invalid_score"
	IssueMissingScores   IssueKind = "missing_scores"
	IssueUnmappedArea    IssueKind = "unmapped_area"
	IssueApproximateArea IssueKind = "approximate_area"
	IssueDuplicateArea   IssueKind = "duplicate_area"
)

// Options tunes the engine.
type Options struct {
	AllowTemporaryIDs bool
	StrictAreas       bool
	Threshold         int
}

// Issue is one error or warning about a row. Index is the row's position in
// the payload, Ordinal the number printed on the ledger.
type Issue struct {
	Index   int       `json:"index"`
	Ordinal int       `json:"number"`
	Name    string    `json:"name,omitempty"`
	Area    string    `json:"area,omitempty"`
	Kind    IssueKind `json:"kind"`
	Detail  string    `json:"detail"`
}

// Stats aggregates a validation pass.
type Stats struct {
	Students      int `json:"students"`
	WithID        int `json:"with_id"`
	WithoutID     int `json:"without_id"`
	Notes         int `json:"notes"`
	Numeric       int `json:"numeric"`
	Literal       int `json:"literal"`
	Exonerated    int `json:"exonerated"`
	Missing       int `json:"missing"`
	AreasDetected int `json:"areas_detected"`
	AreasMapped   int `json:"areas_mapped"`
	AreasUnmapped int `json:"areas_unmapped"`
}

// Report is the outcome of validating a whole page. Valid is false when any
// hard error was found.
type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Stats    Stats   `json:"stats"`
	Areas    AreaMap `json:"areas"`

	failed map[int]bool
}

// RowFailed reports whether the row at index carries a hard error.
func (r *Report) RowFailed(index int) bool { return r.failed[index] }

// PageErrors returns the hard errors that belong to the whole page rather
// than to one row, such as an unmapped area under strict mapping.
func (r *Report) PageErrors() []Issue {
	var out []Issue
	for _, is := range r.Errors {
		if is.Index < 0 {
			out = append(out, is)
		}
	}
	return out
}

// Note is one reconciled grade ready to persist.
type Note struct {
	AreaID     id.AreaID
	Label      string
	Score      Score
	Confidence int
	Method     Method
}

// Engine validates and reconciles ledger rows against a curriculum.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Engine{opts: opts}
}

func (e *Engine) Options() Options { return e.opts }

// Labels lists every distinct score label found across rows, in the order
// first seen with each row's labels sorted.
func Labels(rows []Row) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		keys := make([]string, 0, len(r.Scores))
		for k := range r.Scores {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if f := FoldLabel(k); f != "" && !seen[f] {
				seen[f] = true
				out = append(out, k)
			}
		}
	}
	return out
}

// MapAreas maps the labels of rows onto the curriculum.
func (e *Engine) MapAreas(rows []Row, areas []Area) AreaMap {
	return MapAreas(Labels(rows), areas, e.opts.Threshold)
}

// Validate runs every hard and soft check over rows without touching storage.
func (e *Engine) Validate(rows []Row, areas AreaMap) Report {
	rep := Report{failed: make(map[int]bool)}
	labels := Labels(rows)
	rep.Areas = areas
	rep.Stats.Students = len(rows)
	rep.Stats.AreasDetected = len(labels)
	rep.Stats.AreasMapped = len(areas.Ordered)
	rep.Stats.AreasUnmapped = len(areas.Unmapped)

	for _, m := range areas.Ordered {
		if m.Method == MethodApproximate {
			rep.warn(Issue{Index: -1, Area: m.Label, Kind: IssueApproximateArea,
				Detail: fmt.Sprintf("mapped to %s with confidence %d", m.AreaName, m.Confidence)})
		}
	}
	for _, label := range areas.Unmapped {
		issue := Issue{Index: -1, Area: label, Kind: IssueUnmappedArea, Detail: "no curricular area matches this label"}
		if e.opts.StrictAreas {
			rep.fail(issue)
		} else {
			rep.warn(issue)
		}
	}

	for i, row := range rows {
		e.validateRow(&rep, i, row)
		notes, issues := BuildNotes(row, areas)
		for _, is := range issues {
			is.Index = i
			if is.Kind == IssueScoreRange || is.Kind == IssueInvalidScore {
				rep.fail(is)
			} else {
				rep.warn(is)
			}
		}
		rep.Stats.Notes += len(notes)
		for _, n := range notes {
			switch n.Score.Kind {
			case ScoreNumeric:
				rep.Stats.Numeric++
			case ScoreLiteral:
				rep.Stats.Literal++
			case ScoreExonerated:
				rep.Stats.Exonerated++
			}
		}
		rep.Stats.Missing += countMissing(row)
	}

	rep.Valid = len(rep.Errors) == 0
	return rep
}

func (e *Engine) validateRow(rep *Report, i int, row Row) {
	base := Issue{Index: i, Ordinal: row.Ordinal, Name: row.Name()}
	with := func(kind IssueKind, detail string) Issue {
		is := base
		is.Kind, is.Detail = kind, detail
		return is
	}

	if cleanName(row.FirstNames) == "" || cleanName(row.PaternalSurname) == "" {
		rep.fail(with(IssueMissingName, "first names and paternal surname are required"))
	} else if cleanName(row.MaternalSurname) == "" {
		rep.warn(with(IssueMissingMaternal, "maternal surname is empty"))
	}

	nationalID := strings.TrimSpace(row.NationalID)
	switch {
	case nationalID == "" || IsPlaceholder(nationalID):
		rep.Stats.WithoutID++
		if e.opts.AllowTemporaryIDs {
			rep.warn(with(IssueMissingID, "a temporary id will be assigned"))
		} else {
			rep.fail(with(IssueMissingID, "national id is required"))
		}
	case len(nationalID) > PlaceholderLength:
		rep.Stats.WithID++
		rep.fail(with(IssueInvalidID, fmt.Sprintf("national id longer than %d characters", PlaceholderLength)))
	default:
		rep.Stats.WithID++
	}

	if len(row.Scores) == 0 || countMissing(row) == len(row.Scores) {
		rep.warn(with(IssueMissingScores, "row has no scores"))
	}
}

func (r *Report) fail(is Issue) {
	r.Errors = append(r.Errors, is)
	if is.Index >= 0 {
		r.failed[is.Index] = true
	}
}

func (r *Report) warn(is Issue) {
	r.Warnings = append(r.Warnings, is)
}

func countMissing(row Row) int {
	n := 0
	for _, raw := range row.Scores {
		if s, err := ParseScore(raw); err == nil && s.Kind == ScoreMissing {
			n++
		}
	}
	return n
}

// BuildNotes turns a row's scores into notes. Missing scores and labels
// without a mapping produce no note; malformed scores and a second label
// for an already noted area come back as issues.
func BuildNotes(row Row, areas AreaMap) ([]Note, []Issue) {
	labels := make([]string, 0, len(row.Scores))
	for k := range row.Scores {
		labels = append(labels, k)
	}
	slices.Sort(labels)

	var (
		notes  []Note
		issues []Issue
		seen   = make(map[id.AreaID]string)
	)
	for _, label := range labels {
		score, err := ParseScore(row.Scores[label])
		if err != nil {
			kind := IssueInvalidScore
			if errors.Is(err, ErrScoreOutOfRange) {
				kind = IssueScoreRange
			}
			issues = append(issues, Issue{Ordinal: row.Ordinal, Name: row.Name(), Area: label, Kind: kind, Detail: err.Error()})
			continue
		}
		if score.Kind == ScoreMissing {
			continue
		}
		m, ok := areas.Lookup(label)
		if !ok {
			continue
		}
		if prev, dup := seen[m.AreaID]; dup {
			issues = append(issues, Issue{Ordinal: row.Ordinal, Name: row.Name(), Area: label, Kind: IssueDuplicateArea,
				Detail: fmt.Sprintf("area %s already noted from label %q", m.AreaCode, prev)})
			continue
		}
		seen[m.AreaID] = label
		notes = append(notes, Note{AreaID: m.AreaID, Label: label, Score: score, Confidence: m.Confidence, Method: m.Method})
	}
	return notes, issues
}
