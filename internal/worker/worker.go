package worker

import (
	"context"

	"marketplace-service/internal/broker"
	"marketplace-service/internal/service"
	"marketplace-service/internal/util"
)

// RatingWorker applies REVIEW_SUBMITTED events from the marketplace topic
type RatingWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewRatingWorker creates a new rating worker
func NewRatingWorker(consumer *broker.Consumer, projector *service.RatingProjector) *RatingWorker {
	return &RatingWorker{
		consumer:     consumer,
		eventHandler: NewEventHandler(projector),
	}
}

// NewEventHandler routes marketplace events to the projector
func NewEventHandler(projector *service.RatingProjector) *broker.EventHandler {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnReviewSubmitted(projector.HandleReviewSubmitted)
	return eventHandler
}

// Start blocks until ctx is cancelled
func (w *RatingWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting rating worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RatingWorker) Stop() error {
	util.GetLogger().Info("Stopping rating worker")
	return w.consumer.Close()
}
