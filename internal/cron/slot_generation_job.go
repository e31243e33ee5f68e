package cron

import (
	"context"
	"fmt"

	"github.com/platevine/platevine-backend/pkg/logger"
)

type slotGenerator interface {
	InitializeSlots(ctx context.Context) error
}

type slotGenerationJob struct {
	logg      *logger.Logger
	generator slotGenerator
}

// NewSlotGenerationJob wraps the slot generator as a daily cron job. Each run
// generates from the persisted watermark, so a worker that slept through
// several midnights backfills them all on the next tick.
func NewSlotGenerationJob(logg *logger.Logger, generator slotGenerator) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if generator == nil {
		return nil, fmt.Errorf("slot generator required")
	}
	return &slotGenerationJob{logg: logg, generator: generator}, nil
}

func (j *slotGenerationJob) Name() string { return "slot-generation" }

func (j *slotGenerationJob) Run(ctx context.Context) error {
	return j.generator.InitializeSlots(ctx)
}
