package cron

import (
	"context"
	"fmt"

	"github.com/platevine/platevine-backend/pkg/logger"
)

type sweeper interface {
	Sweep(ctx context.Context) error
}

type sweepJob struct {
	logg    *logger.Logger
	sweeper sweeper
}

// NewSweepJob wraps the cleanup sweeper as a cron job.
func NewSweepJob(logg *logger.Logger, s sweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if s == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	return &sweepJob{logg: logg, sweeper: s}, nil
}

func (j *sweepJob) Name() string { return "order-sweep" }

func (j *sweepJob) Run(ctx context.Context) error {
	return j.sweeper.Sweep(ctx)
}
