// Package store persists analysis reports by interview id.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/interview-analyzer/internal/analysis"
)

var (
	ErrNotFound  = errors.New("report not found")
	ErrInvalidID = errors.New("invalid interview id")
)

// Store saves a report under its interview id, replacing any earlier one.
type Store interface {
	Save(ctx context.Context, report *analysis.Report) error
	Get(ctx context.Context, interviewID string) (*analysis.Report, error)
}

// Driver names a Store implementation.
type Driver string

const (
	DriverNone     Driver = "none"
	DriverFile     Driver = "file"
	DriverPostgres Driver = "postgres"
)

func validateID(interviewID string) error {
	if strings.TrimSpace(interviewID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.ContainsAny(interviewID, `/\`) || strings.Contains(interviewID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, interviewID)
	}
	return nil
}

// Nop discards reports. Get always reports ErrNotFound.
type Nop struct{}

func (Nop) Save(context.Context, *analysis.Report) error { return nil }

func (Nop) Get(_ context.Context, interviewID string) (*analysis.Report, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotFound, interviewID)
}
