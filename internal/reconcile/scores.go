package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ScoreKind classifies a parsed score cell.
type ScoreKind string

const (
	ScoreNumeric    ScoreKind = "numeric"
	ScoreLiteral    ScoreKind = "literal"
	ScoreExonerated ScoreKind = "exonerated"
	ScoreMissing    ScoreKind = "missing"
)

var (
	minScore = decimal.Zero
	maxScore = decimal.NewFromInt(20)

	// ErrScoreOutOfRange is returned for numbers outside the 0..20 scale.
	ErrScoreOutOfRange = errors.New("out of range 0–20")
	// ErrInvalidScore is returned for cells that are neither a number nor a string.
	ErrInvalidScore = errors.New("invalid score")
)

// Score is one parsed grade cell.
type Score struct {
	Kind    ScoreKind       `json:"kind"`
	Value   decimal.Decimal `json:"value"`
	Literal string          `json:"literal,omitempty"`
}

// String renders the score the way it is printed on a certificate.
func (s Score) String() string {
	switch s.Kind {
	case ScoreNumeric:
		return s.Value.String()
	case ScoreLiteral:
		return s.Literal
	case ScoreExonerated:
		return "EXO"
	default:
		return ""
	}
}

// ParseScore interprets a raw OCR cell. Numbers and numeric strings become
// numeric scores rounded to two decimals; EXO and EXONERADO mark an exonerated
// area; other text is kept as a literal grade; null and blanks are missing.
func ParseScore(raw json.RawMessage) (Score, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Score{Kind: ScoreMissing}, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Score{}, fmt.Errorf("%w: %v", ErrInvalidScore, err)
		}
		return parseScoreText(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return Score{}, fmt.Errorf("%w: %v", ErrInvalidScore, err)
		}
		return numeric(d)
	default:
		return Score{}, fmt.Errorf("%w: unsupported value %s", ErrInvalidScore, raw)
	}
}

func parseScoreText(s string) (Score, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "", "-":
		return Score{Kind: ScoreMissing}, nil
	case "EXO", "EXONERADO":
		return Score{Kind: ScoreExonerated}, nil
	}
	if d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1)); err == nil {
		return numeric(d)
	}
	return Score{Kind: ScoreLiteral, Literal: s}, nil
}

func numeric(d decimal.Decimal) (Score, error) {
	if d.LessThan(minScore) || d.GreaterThan(maxScore) {
		return Score{}, fmt.Errorf("%w: got %s", ErrScoreOutOfRange, d.String())
	}
	return Score{Kind: ScoreNumeric, Value: d.Round(2)}, nil
}
