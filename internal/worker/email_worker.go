package worker

// email_worker.go
// Processes notification jobs from QueueEmail: tells the customer their order
// is ready for pickup or on its way. Sends run through the SMTP circuit
// breaker so a dead relay fast-fails into retry/DLQ.

import (
	"context"
	"encoding/json"
	"fmt"

	"gastropos/internal/infra"
	"gastropos/internal/model"
	"gastropos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PedidoDisponibleJobPayload is the job envelope sent to QueueEmail.
type PedidoDisponibleJobPayload struct {
	PedidoID string `json:"pedido_id"`
}

type EmailWorker struct {
	pedidos repository.PedidoRepository
	mailer  *infra.Mailer
	breaker *infra.CircuitBreaker
}

func NewEmailWorker(pedidos repository.PedidoRepository, mailer *infra.Mailer, breaker *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{pedidos: pedidos, mailer: mailer, breaker: breaker}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload PedidoDisponibleJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil // malformed jobs are not retriable
	}
	pedidoID, err := uuid.Parse(payload.PedidoID)
	if err != nil {
		log.Error().Str("pedido_id", payload.PedidoID).Msg("email_worker: invalid pedido_id")
		return nil
	}

	pedido, err := w.pedidos.FindByID(ctx, pedidoID)
	if err != nil {
		return fmt.Errorf("email_worker: load pedido %s: %w", payload.PedidoID, err)
	}
	if pedido.Usuario == nil || pedido.Usuario.Email == "" {
		log.Warn().Str("pedido", pedido.IDTexto()).Msg("email_worker: pedido sin email de usuario, se omite")
		return nil
	}

	subject := fmt.Sprintf("Tu pedido %s está disponible", pedido.IDTexto())
	body := fmt.Sprintf("Hola %s,\n\nTu pedido %s ya está disponible", pedido.Usuario.Nombre, pedido.IDTexto())
	if pedido.Tipo == model.PedidoDelivery {
		body += " y saldrá hacia tu dirección en breve."
	} else {
		body += " para retirar por el local."
	}

	err = w.breaker.Execute(func() error {
		return w.mailer.Send(pedido.Usuario.Email, subject, body, "")
	})
	if err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", pedido.Usuario.Email, err)
	}
	log.Info().Str("to", pedido.Usuario.Email).Str("pedido", pedido.IDTexto()).Msg("email_worker: notificación enviada")
	return nil
}
