// Package subscribers contains NATS JetStream consumers for events raised
// by external systems.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
)

const (
	paymentStream          = "PAYMENT_EVENTS"
	subjectPaymentCaptured = "payment.captured"
)

// PaymentExecutor applies a captured payment to an order. Defined here to
// avoid an import cycle with the services package.
type PaymentExecutor interface {
	MarkOrderPaid(ctx context.Context, orderNo, paymentID string) error
}

// PaymentCapturedEvent is the payload the payment gateway publishes when a
// payment completes.
type PaymentCapturedEvent struct {
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	PaymentID string    `json:"paymentId"`
	OrderNo   string    `json:"orderNo"`
	Amount    float64   `json:"amount"`
}

// PaymentSubscriber consumes payment.captured events and marks the matching
// orders as paid.
type PaymentSubscriber struct {
	nc           *nats.Conn
	js           jetstream.JetStream
	executor     PaymentExecutor
	consumerName string
	logger       *logrus.Entry
	cancel       context.CancelFunc
}

// NewPaymentSubscriber connects to NATS and prepares the payment consumer.
func NewPaymentSubscriber(natsURL string, executor PaymentExecutor, logger *logrus.Logger) (*PaymentSubscriber, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("sheet-sync-service-payments"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	hostname, _ := os.Hostname()

	return &PaymentSubscriber{
		nc:           nc,
		js:           js,
		executor:     executor,
		consumerName: fmt.Sprintf("sheet-sync-payments-%s", hostname),
		logger:       logger.WithField("component", "payment-subscriber"),
	}, nil
}

// Start begins consuming payment events until the context is cancelled.
func (s *PaymentSubscriber) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if _, err := s.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      paymentStream,
		Subjects:  []string{"payment.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	}); err != nil {
		s.logger.WithError(err).Warn("Failed to ensure payment events stream (may already exist)")
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, paymentStream, jetstream.ConsumerConfig{
		Durable:       s.consumerName,
		FilterSubject: subjectPaymentCaptured,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create payment consumer: %w", err)
	}

	go s.consume(ctx, consumer)

	s.logger.Info("Payment subscriber started")
	return nil
}

// Stop cancels the consume loop and closes the connection.
func (s *PaymentSubscriber) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}

func (s *PaymentSubscriber) consume(ctx context.Context, consumer jetstream.Consumer) {
	msgs, err := consumer.Messages()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get payment messages iterator")
		return
	}

	for {
		select {
		case <-ctx.Done():
			msgs.Stop()
			return
		default:
			msg, err := msgs.Next()
			if err != nil {
				if err == context.Canceled {
					return
				}
				s.logger.WithError(err).Error("Failed to get next payment message")
				time.Sleep(time.Second)
				continue
			}

			if err := s.handlePaymentCaptured(ctx, msg); err != nil {
				s.logger.WithError(err).Error("Failed to handle payment event")
				msg.Nak()
			} else {
				msg.Ack()
			}
		}
	}
}

func (s *PaymentSubscriber) handlePaymentCaptured(ctx context.Context, msg jetstream.Msg) error {
	var event PaymentCapturedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		return fmt.Errorf("failed to parse payment event: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"orderNo":   event.OrderNo,
		"paymentId": event.PaymentID,
		"amount":    event.Amount,
	}).Info("Received payment captured event")

	if event.OrderNo == "" || event.PaymentID == "" {
		s.logger.Warn("Payment event missing order or payment id, dropping")
		return nil
	}

	return s.executor.MarkOrderPaid(ctx, event.OrderNo, event.PaymentID)
}
