// Package service provides the publishing side of the vault activity
// pipeline.  Errors are logged and returned so callers can ignore failures
// without interrupting the main request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/joaomferraz/KeyCript/internal/queue"
)

// VaultEventPublisher publishes VaultActivityEvent messages to the
// vault.activity queue.  It dials per publish, which keeps the type free
// of connection state; activity volume is one message per vault mutation.
type VaultEventPublisher struct {
	URL string
}

// NewVaultEventPublisher builds a publisher against the broker named by
// RABBITMQ_URL (or AMQP_URL, or a local default).
func NewVaultEventPublisher() *VaultEventPublisher {
	return &VaultEventPublisher{URL: q.BrokerURL()}
}

// PublishVaultActivity sends one event, marked persistent so it survives a
// broker restart.  Any error is logged and returned; callers treat the
// publish as best-effort.
func (p *VaultEventPublisher) PublishVaultActivity(ctx context.Context, event q.VaultActivityEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.VaultActivityQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(pubCtx, "", q.VaultActivityQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
