package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spigell/interview-analyzer/internal/analysis"
)

// FileStore keeps one <interviewId>.json per report in a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("report directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, report *analysis.Report) error {
	if report == nil {
		return errors.New("nil report")
	}
	if err := validateID(report.InterviewID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, report.InterviewID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(report.InterviewID)); err != nil {
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, interviewID string) (*analysis.Report, error) {
	if err := validateID(interviewID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(interviewID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, interviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var report analysis.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", interviewID, err)
	}
	return &report, nil
}

func (s *FileStore) path(interviewID string) string {
	return filepath.Join(s.dir, interviewID+".json")
}
