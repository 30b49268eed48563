package training

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"DemandCast/internal/domain/models"
)

func init() {
	gob.Register(&SARIMAArtifact{})
	gob.Register(&BoostArtifact{})
	gob.Register(&LSTMArtifact{})
}

type artifactEnvelope struct {
	Artifact models.Artifact
}

// EncodeArtifact serializes a trained artifact for persistence.
func EncodeArtifact(a models.Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&artifactEnvelope{Artifact: a}); err != nil {
		return nil, fmt.Errorf("encode %s artifact: %w", a.Kind(), err)
	}
	return buf.Bytes(), nil
}

// DecodeArtifact restores a persisted artifact.
func DecodeArtifact(data []byte) (models.Artifact, error) {
	var env artifactEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if env.Artifact == nil {
		return nil, fmt.Errorf("decoded artifact is empty")
	}
	return env.Artifact, nil
}
