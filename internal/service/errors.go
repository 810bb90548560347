package service

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the sentinel every validation failure in this
// package wraps. It is the only error the binding layer produces —
// Aggregator and vwaf.Engine never return errors themselves.
var ErrInvalidArgument = errors.New("invalid argument")

// invalidArgf wraps ErrInvalidArgument with a formatted reason, the
// teacher's own tagged-error idiom (fmt.Errorf("...%w", err) throughout
// aggregator.go) rather than a bare sentinel or a panic/exception.
func invalidArgf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidArgument)...)
}
