package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"parkhub/internal/repository"
	"parkhub/internal/ws"
)

const snapshotTimeout = 3 * time.Second

// availabilityNotifier resolves a lot's live counts and pushes them to the
// websocket hub. Runs off the request path; failures only cost the update.
type availabilityNotifier struct {
	lots   *repository.LotRepository
	hub    *ws.Hub
	logger *zap.Logger
}

func (n *availabilityNotifier) NotifyLot(lotID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()

		lot, err := n.lots.Availability(ctx, lotID)
		if err != nil {
			n.logger.Debug("availability snapshot failed", zap.Int64("lot_id", lotID), zap.Error(err))
			return
		}
		n.hub.BroadcastAvailability(*lot)
	}()
}
