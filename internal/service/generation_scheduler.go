package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spiritschool/booking-api/pkg/config"
	"github.com/spiritschool/booking-api/pkg/jobs"
)

const generateSlotsJobType = "generate_slots"

// GenerationScheduler runs the recurring slot generation. Once a day, at the
// configured hour UTC, it enqueues one job per active teacher onto a worker
// queue so large rosters expand in parallel without blocking the scheduler
// loop.
type GenerationScheduler struct {
	generator *SlotGeneratorService
	teachers  generatorTeacherRepository
	queue     *jobs.Queue
	cfg       config.GeneratorConfig
	logger    *zap.Logger
	cancel    context.CancelFunc
}

// NewGenerationScheduler constructs the scheduler and its queue.
func NewGenerationScheduler(generator *SlotGeneratorService, teachers generatorTeacherRepository, cfg config.GeneratorConfig, logger *zap.Logger) *GenerationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &GenerationScheduler{
		generator: generator,
		teachers:  teachers,
		cfg:       cfg,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("slot-generation", s.handle, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the queue workers and the daily trigger loop.
func (s *GenerationScheduler) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Sugar().Infow("slot generation disabled")
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)
	go s.loop(ctx)
	s.logger.Sugar().Infow("generation scheduler started", "daily_run_hour", s.cfg.DailyRunHour, "horizon_days", s.cfg.HorizonDays)
}

// Stop halts the trigger loop and drains the queue workers.
func (s *GenerationScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
}

func (s *GenerationScheduler) loop(ctx context.Context) {
	for {
		wait := time.Until(nextRunAt(time.Now().UTC(), s.cfg.DailyRunHour))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := s.EnqueueAll(ctx); err != nil {
				s.logger.Sugar().Errorw("daily generation enqueue failed", "error", err)
			}
		}
	}
}

// EnqueueAll queues a generation job for every active teacher.
func (s *GenerationScheduler) EnqueueAll(ctx context.Context) error {
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active teachers: %w", err)
	}
	for _, teacher := range teachers {
		if err := s.EnqueueTeacher(teacher.ID); err != nil {
			return err
		}
	}
	s.logger.Sugar().Infow("generation jobs enqueued", "count", len(teachers))
	return nil
}

// EnqueueTeacher queues a generation job for one teacher.
func (s *GenerationScheduler) EnqueueTeacher(teacherID string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    generateSlotsJobType,
		Payload: teacherID,
	})
}

func (s *GenerationScheduler) handle(ctx context.Context, job jobs.Job) error {
	teacherID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("job %s: payload is not a teacher id", job.ID)
	}
	result, err := s.generator.GenerateForTeacher(ctx, teacherID, time.Now().UTC(), s.cfg.HorizonDays)
	if err != nil {
		return fmt.Errorf("generate for teacher %s: %w", teacherID, err)
	}
	if result.Warning != "" {
		s.logger.Sugar().Warnw("generation completed with warning", "teacher_id", teacherID, "warning", result.Warning)
	}
	return nil
}

func nextRunAt(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}
