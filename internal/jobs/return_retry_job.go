package jobs

import (
	"context"
	"errors"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultReturnRetryBatch bounds how many returns one run picks up.
const DefaultReturnRetryBatch = 50

// AwaitingReturns lists inspected returns whose restock or refund did not
// finish, oldest first.
type AwaitingReturns func(ctx context.Context, limit int) ([]kernel.UUID, error)

type completeReturnHandler interface {
	Handle(ctx context.Context, cmd commands.CompleteReturnCommand) error
}

// ReturnRetryJob finishes returns that a failed refund left half done.
// CompleteReturn skips the restock when it already happened, so a retry only
// repeats the refund.
type ReturnRetryJob struct {
	awaiting AwaitingReturns
	handler  completeReturnHandler
	schedule string
	batch    int
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewReturnRetryJob(
	awaiting AwaitingReturns,
	handler completeReturnHandler,
	schedule string,
	batch int,
	logger *zap.Logger,
) *ReturnRetryJob {
	if batch <= 0 {
		batch = DefaultReturnRetryBatch
	}
	return &ReturnRetryJob{
		awaiting: awaiting,
		handler:  handler,
		schedule: schedule,
		batch:    batch,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With(zap.String("component", "return_retry_job")),
	}
}

// Start schedules the job with a six field cron expression.
func (j *ReturnRetryJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("return retry job started", zap.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running pass to finish.
func (j *ReturnRetryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("return retry job stopped")
}

// run returns how many returns were completed.
func (j *ReturnRetryJob) run(ctx context.Context) int {
	ids, err := j.awaiting(ctx, j.batch)
	if err != nil {
		j.logger.Error("listing returns awaiting completion failed", zap.Error(err))
		return 0
	}

	completed := 0
	for _, id := range ids {
		cmd, err := commands.NewCompleteReturnCommand(id, nil, "")
		if err != nil {
			j.logger.Error("invalid return id", zap.Stringer("returnId", id), zap.Error(err))
			continue
		}

		err = j.handler.Handle(ctx, cmd)
		switch {
		case err == nil:
			completed++
		case errors.Is(err, errs.ErrPaymentFailed):
			j.logger.Warn("refund still failing", zap.Stringer("returnId", id), zap.Error(err))
		default:
			j.logger.Error("completing return failed", zap.Stringer("returnId", id), zap.Error(err))
		}
	}

	if len(ids) > 0 {
		j.logger.Info("return retry pass finished",
			zap.Int("candidates", len(ids)), zap.Int("completed", completed))
	}
	return completed
}
