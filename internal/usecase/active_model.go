package usecase

import (
	"sync/atomic"

	"DemandCast/internal/domain/models"
)

// ModelSnapshot is one published generation of the serving model.
// Immutable after publish.
type ModelSnapshot struct {
	Artifact   models.Artifact
	Comparison *models.ModelComparison
	Version    int64
}

// ActiveModel is the atomically-swapped handle to the current serving
// model. Readers never block; writers publish a whole new snapshot.
type ActiveModel struct {
	cur     atomic.Pointer[ModelSnapshot]
	version atomic.Int64
}

// NewActiveModel creates an empty handle. Until the first Publish every
// Current call reports no model.
func NewActiveModel() *ActiveModel {
	return &ActiveModel{}
}

// Publish swaps in a new snapshot with the next version number and
// returns it. The previous snapshot keeps serving in-flight readers.
func (a *ActiveModel) Publish(artifact models.Artifact, cmp *models.ModelComparison) *ModelSnapshot {
	snap := &ModelSnapshot{
		Artifact:   artifact,
		Comparison: cmp,
		Version:    a.version.Add(1),
	}
	a.cur.Store(snap)
	return snap
}

// Current returns the active snapshot, or false when nothing has been
// published yet.
func (a *ActiveModel) Current() (*ModelSnapshot, bool) {
	snap := a.cur.Load()
	return snap, snap != nil
}

// Version returns the version of the active snapshot, 0 when none.
func (a *ActiveModel) Version() int64 {
	if snap := a.cur.Load(); snap != nil {
		return snap.Version
	}
	return 0
}
