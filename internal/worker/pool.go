package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueComanda = "jobs:comanda"
	QueueEmail   = "jobs:email"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one dequeued job payload. A returned error requeues the
// job until maxAttempts, then it lands in the DLQ.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EncolarComanda pushes a kitchen-ticket job for a just-closed order.
func (d *Dispatcher) EncolarComanda(ctx context.Context, pedidoID uuid.UUID) error {
	return d.enqueue(ctx, QueueComanda, "comanda", ComandaJobPayload{PedidoID: pedidoID.String()})
}

// EncolarEmailPedidoDisponible pushes the ready-for-pickup notification job.
func (d *Dispatcher) EncolarEmailPedidoDisponible(ctx context.Context, pedidoID uuid.UUID) error {
	return d.enqueue(ctx, QueueEmail, "pedido_disponible", PedidoDisponibleJobPayload{PedidoID: pedidoID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
}

func NewPool(rdb *redis.Client, comanda, emails Handler) *Pool {
	return &Pool{
		rdb: rdb,
		handlers: map[string]Handler{
			QueueComanda: comanda,
			QueueEmail:   emails,
		},
	}
}

// Start launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueComanda, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	handler, ok := p.handlers[queue]
	if !ok || handler == nil {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue")
		return
	}

	if err := handler.Process(ctx, job.Payload); err != nil {
		job.Attempts++
		if job.Attempts >= maxAttempts {
			SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
			return
		}
		encoded, merr := json.Marshal(job)
		if merr != nil {
			log.Error().Err(merr).Msg("failed to re-marshal job for retry")
			return
		}
		if err := p.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("failed to requeue job")
		}
		log.Warn().Str("queue", queue).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job requeued after failure")
	}
}
