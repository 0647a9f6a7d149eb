package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGoalValue    = errors.New("goal values must be finite and non-negative")
	ErrInvalidGoalOrdering = errors.New("goal values must satisfy daily <= weekly <= monthly")
	ErrInvalidRunSample    = errors.New("invalid run sample")
	ErrRunNotFound         = errors.New("run not found")
	ErrStorage             = errors.New("storage failure")
)

// storageErr tags a persistence failure so callers can match ErrStorage while the
// driver error stays in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
