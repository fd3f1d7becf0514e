// Package events provides NATS JetStream publishing and subscription for
// order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"sheet-sync-service/internal/models"
)

const (
	orderStream        = "ORDER_EVENTS"
	SubjectOrderSynced = "order.synced"
	SubjectOrderPaid   = "order.paid"
)

// OrderEvent is the wire payload for order lifecycle events.
type OrderEvent struct {
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
	OrderNo     string    `json:"orderNo"`
	UserPhone   string    `json:"userPhone"`
	Source      string    `json:"source"`
	PaidStatus  string    `json:"paidStatus"`
	TotalAmount float64   `json:"totalAmount"`
	ItemCount   int       `json:"itemCount"`
}

// Publisher publishes order events to JetStream.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS and ensures the order events stream exists.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("sheet-sync-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      orderStream,
		Subjects:  []string{"order.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour * 7,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	}); err != nil {
		logger.WithError(err).Warn("Failed to ensure order events stream (may already exist)")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "order-events"),
	}, nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// PublishOrderSynced publishes an order.synced event for a newly imported
// order.
func (p *Publisher) PublishOrderSynced(ctx context.Context, order *models.Order) {
	p.publish(ctx, SubjectOrderSynced, p.buildOrderEvent(SubjectOrderSynced, order))
}

// PublishOrderPaid publishes an order.paid event.
func (p *Publisher) PublishOrderPaid(ctx context.Context, order *models.Order) {
	p.publish(ctx, SubjectOrderPaid, p.buildOrderEvent(SubjectOrderPaid, order))
}

func (p *Publisher) buildOrderEvent(eventType string, order *models.Order) *OrderEvent {
	return &OrderEvent{
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
		OrderNo:     order.OrderNo,
		UserPhone:   order.UserPhone,
		Source:      string(order.Source),
		PaidStatus:  string(order.PaidStatus),
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
	}
}

// publish sends the event asynchronously; a failed publish is logged and
// never fails the operation that raised it. The caller's context carries
// through as the publish parent, detached from its cancellation so the
// publish survives the request that raised it.
func (p *Publisher) publish(ctx context.Context, subject string, event *OrderEvent) {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to marshal order event")
			return
		}

		if _, err := p.js.Publish(pubCtx, subject, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"subject": subject,
				"orderNo": event.OrderNo,
			}).WithError(err).Error("Failed to publish order event")
			return
		}

		p.logger.WithFields(logrus.Fields{
			"subject": subject,
			"orderNo": event.OrderNo,
		}).Info("Order event published")
	}()
}
