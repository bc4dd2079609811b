package eeg

import (
	"errors"
	"fmt"
)

// Kind classifies a data-integrity failure.
type Kind int

const (
	KindMarkerCount Kind = iota + 1
	KindEpochCount
	KindSeriesLength
	KindRowLength
	KindFeatureIndex
	KindRankingShape
)

func (k Kind) String() string {
	switch k {
	case KindMarkerCount:
		return "marker count"
	case KindEpochCount:
		return "epoch count"
	case KindSeriesLength:
		return "series length"
	case KindRowLength:
		return "row length"
	case KindFeatureIndex:
		return "feature index"
	case KindRankingShape:
		return "ranking table shape"
	default:
		return "unknown"
	}
}

// IntegrityError is a fatal mismatch between the expected and actual shape of
// pipeline data. A run that returns one produces no partial result.
type IntegrityError struct {
	Kind     Kind
	Expected int
	Actual   int
	Detail   string
}

func (e *IntegrityError) Error() string {
	msg := fmt.Sprintf("%s mismatch: expected %d, got %d", e.Kind, e.Expected, e.Actual)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Mismatch builds an IntegrityError.
func Mismatch(kind Kind, expected, actual int, detail string) *IntegrityError {
	return &IntegrityError{Kind: kind, Expected: expected, Actual: actual, Detail: detail}
}

// AsIntegrity unwraps err into an IntegrityError if it carries one.
func AsIntegrity(err error) (*IntegrityError, bool) {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// IsKind reports whether err carries an IntegrityError of the given kind.
func IsKind(err error, kind Kind) bool {
	ie, ok := AsIntegrity(err)
	return ok && ie.Kind == kind
}
