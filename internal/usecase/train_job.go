package usecase

import (
	"context"
	"errors"

	"DemandCast/pkg/logger"
	"DemandCast/pkg/queue"
)

// TrainMessageType is the queue message type the training job consumes.
const TrainMessageType = "training.run"

// TrainPayload carries the run options through the queue.
type TrainPayload struct {
	SkipFeatures bool `json:"skip_features"`
}

// TrainJob runs the training pipeline off the in-process queue, used for
// the startup bootstrap run so serving starts without blocking on a fit.
type TrainJob struct {
	pipeline *TrainingPipeline
	logger   *logger.Logger
}

// NewTrainJob creates the queue job.
func NewTrainJob(pipeline *TrainingPipeline, l *logger.Logger) *TrainJob {
	return &TrainJob{pipeline: pipeline, logger: l}
}

func (j *TrainJob) Name() string { return "training-pipeline" }

func (j *TrainJob) Type() string { return TrainMessageType }

func (j *TrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[TrainPayload](payload)
	if err != nil {
		return err
	}

	outcome, err := j.pipeline.Run(ctx, p.SkipFeatures)
	if errors.Is(err, ErrTrainingInProgress) {
		// Another trigger won the race; nothing to retry.
		j.logger.Info("skipping queued training run, one already in flight")
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.Info("queued training run finished",
		logger.String("best_model", string(outcome.BestModel)),
		logger.Duration("elapsed", outcome.Duration),
	)
	return nil
}
