package workerpool

import (
	"context"
	"time"

	"codearena/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GradingWorker consumes grading jobs from the Redis stream and runs each
// submission through the Grader.
type GradingWorker struct {
	id     string
	quit   chan bool
	rdb    *redis.Client
	stream string
	group  string
	grader *Grader
}

func NewGradingWorker(id string, rdb *redis.Client, stream, group string, grader *Grader) *GradingWorker {
	return &GradingWorker{
		id:     id,
		quit:   make(chan bool),
		rdb:    rdb,
		stream: stream,
		group:  group,
		grader: grader,
	}
}

func (w *GradingWorker) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-w.quit:
				return
			default:
				entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    w.group,
					Consumer: w.id,
					Streams:  []string{w.stream, ">"},
					Count:    1,
					Block:    5 * time.Second,
				}).Result()

				if err != nil {
					if err != redis.Nil {
						logger.Log.Error("Redis operation failed",
							zap.String("worker_id", w.id),
							zap.Error(err))
					}
					continue
				}

				for _, stream := range entries {
					for _, msg := range stream.Messages {
						w.processJob(ctx, msg)
					}
				}
			}
		}
	}()
}

func (w *GradingWorker) Stop() {
	logger.Log.Info("Closing worker",
		zap.String("worker_id", w.id))
	w.quit <- true
	close(w.quit)
}

func (w *GradingWorker) processJob(ctx context.Context, msg redis.XMessage) {
	logger.Log.Info("Processing grading job",
		zap.String("worker_id", w.id),
		zap.String("job_id", msg.ID))

	if err := w.rdb.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
		logger.Log.Error("Failed to acknowledge job",
			zap.String("worker_id", w.id),
			zap.Error(err))
	}

	submissionID, ok := msg.Values["submission_id"].(string)
	if !ok || submissionID == "" {
		logger.Log.Error("Invalid submission ID in message",
			zap.String("worker_id", w.id),
			zap.Any("values", msg.Values))
		return
	}

	w.grader.GradeSubmission(ctx, submissionID)
}
