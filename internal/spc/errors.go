package spc

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	KindInvalidDataset             ErrorKind = "INVALID_DATASET"
	KindUnsupportedSubgroupSize    ErrorKind = "UNSUPPORTED_SUBGROUP_SIZE"
	KindInvalidSpecificationLimits ErrorKind = "INVALID_SPECIFICATION_LIMITS"
	KindDegenerateVariation        ErrorKind = "DEGENERATE_VARIATION"
	KindInvalidChartType           ErrorKind = "INVALID_CHART_TYPE"
)

// Sentinel errors, one per kind. Every *Error unwraps to the sentinel of its kind.
var (
	ErrInvalidDataset             = errors.New("invalid dataset")
	ErrUnsupportedSubgroupSize    = errors.New("unsupported subgroup size")
	ErrInvalidSpecificationLimits = errors.New("invalid specification limits")
	ErrDegenerateVariation        = errors.New("degenerate variation")
	ErrInvalidChartType           = errors.New("invalid chart type")
)

var sentinels = map[ErrorKind]error{
	KindInvalidDataset:             ErrInvalidDataset,
	KindUnsupportedSubgroupSize:    ErrUnsupportedSubgroupSize,
	KindInvalidSpecificationLimits: ErrInvalidSpecificationLimits,
	KindDegenerateVariation:        ErrDegenerateVariation,
	KindInvalidChartType:           ErrInvalidChartType,
}

// Error represents an engine failure with the offending field and value
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	Value   interface{}
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

// Unwrap returns the sentinel for the error kind.
func (e *Error) Unwrap() error {
	return sentinels[e.Kind]
}

// KindOf reports the kind of an engine error anywhere in err's chain.
// The second return value is false for errors that did not come from the engine.
func KindOf(err error) (ErrorKind, bool) {
	var spcErr *Error
	if errors.As(err, &spcErr) {
		return spcErr.Kind, true
	}
	for kind, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}
	return "", false
}

func newError(kind ErrorKind, field, message string, value interface{}) *Error {
	return &Error{Kind: kind, Field: field, Message: message, Value: value}
}
