package usecase

import (
	"sync"
	"testing"

	"DemandCast/internal/domain/models"
)

func TestActiveModelPublishAndVersion(t *testing.T) {
	a := NewActiveModel()

	if _, ok := a.Current(); ok {
		t.Error("fresh handle reports an active model")
	}
	if v := a.Version(); v != 0 {
		t.Errorf("fresh version = %d, want 0", v)
	}

	first := a.Publish(&stubArtifact{kind: models.ModelSARIMA}, nil)
	if first.Version != 1 {
		t.Errorf("first version = %d, want 1", first.Version)
	}

	second := a.Publish(&stubArtifact{kind: models.ModelBoost}, nil)
	if second.Version != 2 {
		t.Errorf("second version = %d, want 2", second.Version)
	}

	snap, ok := a.Current()
	if !ok || snap.Artifact.Kind() != models.ModelBoost {
		t.Error("Current does not reflect the latest publish")
	}
}

func TestActiveModelConcurrentReaders(t *testing.T) {
	a := NewActiveModel()
	a.Publish(&stubArtifact{kind: models.ModelSARIMA}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if snap, ok := a.Current(); ok && snap.Artifact == nil {
					t.Error("snapshot with nil artifact")
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		a.Publish(&stubArtifact{kind: models.ModelLSTM}, nil)
	}
	wg.Wait()

	if v := a.Version(); v != 51 {
		t.Errorf("version = %d, want 51", v)
	}
}
