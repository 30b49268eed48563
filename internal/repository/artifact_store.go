package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/training"
	applogger "DemandCast/pkg/logger"
)

const comparisonFile = "model_comparison.json"

// FileArtifactStore persists one gob blob per model variant plus the
// comparison record as JSON, so a restart resumes serving the previously
// selected model.
type FileArtifactStore struct {
	dir string
	l   *applogger.Logger
	mu  sync.Mutex
}

func NewFileArtifactStore(dir string, l *applogger.Logger) (*FileArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &FileArtifactStore{dir: dir, l: l}, nil
}

// SaveArtifact writes the artifact blob via a temp file and rename so a
// crash mid-write never corrupts the previous blob.
func (s *FileArtifactStore) SaveArtifact(artifact models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := training.EncodeArtifact(artifact)
	if err != nil {
		return err
	}

	path := s.artifactPath(artifact.Kind())
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("write %s artifact: %w", artifact.Kind(), err)
	}

	s.l.Info("artifact persisted",
		applogger.String("model", string(artifact.Kind())),
		applogger.String("path", path),
		applogger.Int("bytes", len(data)),
	)
	return nil
}

// LoadArtifact restores a persisted artifact. A missing blob returns
// (nil, nil).
func (s *FileArtifactStore) LoadArtifact(kind models.ModelKind) (models.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.artifactPath(kind))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s artifact: %w", kind, err)
	}
	return training.DecodeArtifact(data)
}

func (s *FileArtifactStore) SaveComparison(cmp *models.ModelComparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cmp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal comparison: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, comparisonFile), data); err != nil {
		return fmt.Errorf("write comparison: %w", err)
	}
	return nil
}

// LoadComparison restores the persisted comparison record, (nil, nil)
// when none exists.
func (s *FileArtifactStore) LoadComparison() (*models.ModelComparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, comparisonFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read comparison: %w", err)
	}

	var cmp models.ModelComparison
	if err := json.Unmarshal(data, &cmp); err != nil {
		return nil, fmt.Errorf("parse comparison: %w", err)
	}
	return &cmp, nil
}

func (s *FileArtifactStore) artifactPath(kind models.ModelKind) string {
	name := strings.ToLower(string(kind)) + ".gob"
	return filepath.Join(s.dir, name)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
