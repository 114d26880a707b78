package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/harshini-mantri/accident-prediction/internal/dataset"
	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/events"
	"github.com/harshini-mantri/accident-prediction/internal/metrics"
	"github.com/harshini-mantri/accident-prediction/internal/ml"
)

// Training stages, in order
const (
	StageLoad       = "load"
	StagePreprocess = "preprocess"
	StageTrain      = "train"
	StagePersist    = "persist"
)

// TrainingError names the stage a retrain failed at
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed at %s stage: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// TrainingDeps wires the training service
type TrainingDeps struct {
	Source    domain.DatasetSource
	Adapter   *ClassifierAdapter
	Cache     *DatasetCache
	ModelPath string
	Options   ml.TrainOptions
	// RemoteServing is set when a remote classifier answers predictions,
	// so a retrained local model is saved but not consulted
	RemoteServing bool
	Publisher     EventPublisher
	Log           *zap.Logger
	Metrics       *metrics.Metrics
}

// TrainingService loads, trains, persists and swaps the local model
type TrainingService struct {
	source    domain.DatasetSource
	adapter   *ClassifierAdapter
	cache     *DatasetCache
	modelPath string
	opts      ml.TrainOptions
	remote    bool
	publisher EventPublisher
	log       *zap.Logger
	metrics   *metrics.Metrics

	group singleflight.Group
}

// NewTrainingService creates a training service
func NewTrainingService(deps TrainingDeps) *TrainingService {
	s := &TrainingService{
		source:    deps.Source,
		adapter:   deps.Adapter,
		cache:     deps.Cache,
		modelPath: deps.ModelPath,
		opts:      deps.Options,
		remote:    deps.RemoteServing,
		publisher: deps.Publisher,
		log:       deps.Log,
		metrics:   deps.Metrics,
	}
	if s.adapter == nil {
		s.adapter = NewClassifierAdapter()
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

// Bootstrap installs the persisted model, or trains one when it is missing
// or unreadable. Without data the service stays fallback-only.
func (s *TrainingService) Bootstrap(ctx context.Context) {
	if s.modelPath != "" {
		m, err := ml.LoadModel(s.modelPath)
		if err == nil {
			s.adapter.Swap(m)
			s.log.Info("loaded prediction model",
				zap.String("path", s.modelPath),
				zap.String("version", m.Version))
			return
		}
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("model file not found, attempting to train", zap.String("path", s.modelPath))
		} else {
			s.log.Warn("could not load model, attempting to train", zap.String("path", s.modelPath), zap.Error(err))
		}
	}

	if _, err := s.Retrain(ctx); err != nil {
		s.log.Warn("no model available, using fallback prediction", zap.Error(err))
	}
}

// Retrain runs load, preprocess, train and persist, then swaps the model in.
// Concurrent calls share one run. On failure the previous model stays.
func (s *TrainingService) Retrain(ctx context.Context) (domain.ModelInfo, error) {
	v, err, _ := s.group.Do("retrain", func() (any, error) {
		return s.retrain(context.WithoutCancel(ctx))
	})
	s.metrics.Retrains.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return domain.ModelInfo{}, err
	}
	return v.(domain.ModelInfo), nil
}

func (s *TrainingService) retrain(ctx context.Context) (domain.ModelInfo, error) {
	if s.source == nil {
		return domain.ModelInfo{}, &TrainingError{Stage: StageLoad, Err: domain.ErrDataUnavailable}
	}

	raw, err := s.source.Load(ctx)
	if err != nil {
		return domain.ModelInfo{}, &TrainingError{Stage: StageLoad, Err: err}
	}

	table, err := dataset.ToFeatureTable(raw)
	if err != nil {
		return domain.ModelInfo{}, &TrainingError{Stage: StagePreprocess, Err: err}
	}
	if !table.HasSeverity {
		s.log.Warn("dataset has no severity column, every incident is labelled positive",
			zap.String("source", s.source.Describe()))
	}

	m, err := ml.Train(table, s.opts)
	if err != nil {
		return domain.ModelInfo{}, &TrainingError{Stage: StageTrain, Err: err}
	}

	if s.modelPath != "" {
		if err := ml.SaveModel(s.modelPath, m); err != nil {
			return domain.ModelInfo{}, &TrainingError{Stage: StagePersist, Err: err}
		}
	}

	s.adapter.Swap(m)
	if s.cache != nil {
		s.cache.Invalidate()
	}

	info := m.Info()
	s.log.Info("model trained",
		zap.String("version", info.Version),
		zap.Int("train_rows", info.TrainRows),
		zap.Float64("accuracy", info.Accuracy))
	if s.remote {
		s.log.Warn("remote classifier stays in service, local model kept for restarts without it",
			zap.String("version", info.Version))
	}

	pubCtx, cancel := context.WithTimeout(ctx, backgroundTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, events.NewEvent(events.TypeModelRetrained, info)); err != nil {
		s.log.Warn("failed to publish retrain event", zap.Error(err))
	}

	return info, nil
}

// RemoteServing reports whether predictions go to a remote classifier
// instead of the locally trained model
func (s *TrainingService) RemoteServing() bool {
	return s.remote
}

// DatasetStats loads the raw dataset and summarizes it
func (s *TrainingService) DatasetStats(ctx context.Context) (domain.DatasetStats, error) {
	if s.source == nil {
		return domain.DatasetStats{}, domain.ErrDataUnavailable
	}
	raw, err := s.source.Load(ctx)
	if err != nil {
		return domain.DatasetStats{}, err
	}
	return dataset.Stats(raw), nil
}

// ModelInfo describes the local model, if any
func (s *TrainingService) ModelInfo() (domain.ModelInfo, bool) {
	m := s.adapter.Model()
	if m == nil {
		return domain.ModelInfo{}, false
	}
	return m.Info(), true
}
