package worker

// comanda_worker.go
// Processes kitchen-ticket jobs from QueueComanda: renders the A7 comanda PDF
// for a just-closed order so the kitchen printer can pick it up.

import (
	"context"
	"encoding/json"
	"fmt"

	"gastropos/internal/infra"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ComandaJobPayload is the job envelope sent to QueueComanda.
type ComandaJobPayload struct {
	PedidoID string `json:"pedido_id"`
}

type ComandaWorker struct {
	pedidos     repository.PedidoRepository
	storagePath string
}

func NewComandaWorker(pedidos repository.PedidoRepository, storagePath string) *ComandaWorker {
	return &ComandaWorker{pedidos: pedidos, storagePath: storagePath}
}

func (w *ComandaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ComandaJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("comanda_worker: invalid payload")
		return nil // malformed jobs are not retriable
	}
	pedidoID, err := uuid.Parse(payload.PedidoID)
	if err != nil {
		log.Error().Str("pedido_id", payload.PedidoID).Msg("comanda_worker: invalid pedido_id")
		return nil
	}

	pedido, err := w.pedidos.FindByID(ctx, pedidoID)
	if err != nil {
		return fmt.Errorf("comanda_worker: load pedido %s: %w", payload.PedidoID, err)
	}

	path, err := infra.GenerateComandaPDF(pedido, w.storagePath)
	if err != nil {
		return fmt.Errorf("comanda_worker: render pdf: %w", err)
	}
	log.Info().Str("pedido", pedido.IDTexto()).Str("pdf", path).Msg("comanda_worker: comanda generada")
	return nil
}
