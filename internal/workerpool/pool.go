package workerpool

import (
	"context"
	"fmt"

	"codearena/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type GradingWorkerPool struct {
	workers    []*GradingWorker
	numWorkers int
	rdb        *redis.Client
	stream     string
	group      string
	grader     *Grader
}

func NewGradingWorkerPool(numWorkers int, rdb *redis.Client, stream, group string, grader *Grader) *GradingWorkerPool {
	return &GradingWorkerPool{
		workers:    make([]*GradingWorker, numWorkers),
		numWorkers: numWorkers,
		rdb:        rdb,
		stream:     stream,
		group:      group,
		grader:     grader,
	}
}

func (p *GradingWorkerPool) Start(ctx context.Context) error {
	// Create consumer group if it doesn't exist
	_, err := p.rdb.XGroupCreateMkStream(ctx, p.stream, p.group, "$").Result()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for i := 0; i < p.numWorkers; i++ {
		worker := NewGradingWorker(
			fmt.Sprintf("GradingWorker-%d", i+1),
			p.rdb,
			p.stream,
			p.group,
			p.grader,
		)

		worker.Start(ctx)
		p.workers[i] = worker

		logger.Log.Info("Starting grading worker",
			zap.String("worker_id", worker.id))
	}

	logger.Log.Info("Grading worker pool started",
		zap.Int("num_workers", p.numWorkers))

	return nil
}

func (p *GradingWorkerPool) Stop() {
	for _, worker := range p.workers {
		worker.Stop()
	}
}
