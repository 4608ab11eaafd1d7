package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

// PlaceholderLength bounds synthesized national ids to the column width.
const PlaceholderLength = 8

// Row is one student line of a ledger page as extracted by OCR.
type Row struct {
	Ordinal         int
	NationalID      string
	FirstNames      string
	PaternalSurname string
	MaternalSurname string
	Sex             string
	BirthDate       string
	Outcome         string
	Remarks         string
	Scores          map[string]json.RawMessage
}

// Name is the row's full name as printed on certificates.
func (r Row) Name() string {
	parts := []string{cleanName(r.PaternalSurname), cleanName(r.MaternalSurname), cleanName(r.FirstNames)}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// StudentLookup finds existing canonical students. Both methods report
// found=false rather than an error when nothing matches.
type StudentLookup interface {
	FindByNationalID(ctx context.Context, nationalID string) (id.StudentID, bool, error)
	FindByName(ctx context.Context, first, paternal, maternal string) (id.StudentID, bool, error)
}

// MatchKind tells which rule resolved a row.
type MatchKind string

const (
	MatchNationalID MatchKind = "national_id"
	MatchName       MatchKind = "name"
	MatchNew        MatchKind = "new"
)

// Match is the identity resolution for one row. StudentID is set unless Kind
// is MatchNew, in which case NationalID and Temporary describe the student to
// create.
type Match struct {
	Kind       MatchKind
	StudentID  id.StudentID
	NationalID string
	Temporary  bool
}

// Matcher resolves rows to students: a real national id first, then the
// exact cleaned name triple, otherwise a new student.
type Matcher struct {
	lookup         StudentLookup
	allowTemporary bool
}

func NewMatcher(lookup StudentLookup, allowTemporary bool) *Matcher {
	return &Matcher{lookup: lookup, allowTemporary: allowTemporary}
}

func (m *Matcher) Match(ctx context.Context, row Row, now time.Time) (Match, error) {
	nationalID := strings.TrimSpace(row.NationalID)
	if nationalID != "" && !IsPlaceholder(nationalID) {
		sid, ok, err := m.lookup.FindByNationalID(ctx, nationalID)
		if err != nil {
			return Match{}, err
		}
		if ok {
			return Match{Kind: MatchNationalID, StudentID: sid, NationalID: nationalID}, nil
		}
	}

	first, paternal, maternal := cleanName(row.FirstNames), cleanName(row.PaternalSurname), cleanName(row.MaternalSurname)
	if first != "" && paternal != "" {
		sid, ok, err := m.lookup.FindByName(ctx, first, paternal, maternal)
		if err != nil {
			return Match{}, err
		}
		if ok {
			return Match{Kind: MatchName, StudentID: sid, NationalID: nationalID}, nil
		}
	}

	if nationalID != "" && !IsPlaceholder(nationalID) {
		return Match{Kind: MatchNew, NationalID: nationalID}, nil
	}
	if !m.allowTemporary {
		return Match{}, dErrors.Newf(dErrors.CodeMissingIdentifier, "row %d has no national id and temporary ids are disabled", row.Ordinal)
	}
	return Match{Kind: MatchNew, NationalID: Placeholder(now, row.Ordinal), Temporary: true}, nil
}

// Placeholder synthesizes a temporary national id: T, the last five digits of
// the Unix millisecond clock and the two-digit row ordinal.
func Placeholder(now time.Time, ordinal int) string {
	p := fmt.Sprintf("T%05d%02d", now.UnixMilli()%100000, ordinal)
	if len(p) > PlaceholderLength {
		p = p[:PlaceholderLength]
	}
	return p
}

// IsPlaceholder reports whether a national id was synthesized.
func IsPlaceholder(nationalID string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(nationalID)), "T")
}
