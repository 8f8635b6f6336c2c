package service

import (
	"context"

	"github.com/google/uuid"
)

// JobDispatcher enqueues background jobs triggered by lifecycle transitions.
// The Redis-backed implementation lives in the worker package; services
// tolerate a nil dispatcher so unit tests run without Redis.
type JobDispatcher interface {
	// EncolarComanda queues the kitchen-ticket PDF for a just-closed order.
	EncolarComanda(ctx context.Context, pedidoID uuid.UUID) error
	// EncolarEmailPedidoDisponible queues the ready-for-pickup notification.
	EncolarEmailPedidoDisponible(ctx context.Context, pedidoID uuid.UUID) error
}
