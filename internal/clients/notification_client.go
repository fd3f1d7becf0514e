package clients

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// NotificationClient sends transactional email to buyers.
type NotificationClient interface {
	// SendPaymentConfirmation notifies a buyer their payment was received.
	SendPaymentConfirmation(ctx context.Context, to, name, orderNo string, amount float64) error
}

type notificationClient struct {
	apiKey   string
	fromName string
	fromAddr string
	logger   *logrus.Entry
}

// NewNotificationClient creates a SendGrid-backed notification client.
func NewNotificationClient(apiKey, fromName, fromAddr string, logger *logrus.Logger) NotificationClient {
	return &notificationClient{
		apiKey:   apiKey,
		fromName: fromName,
		fromAddr: fromAddr,
		logger:   logger.WithField("component", "notifications"),
	}
}

func (c *notificationClient) SendPaymentConfirmation(ctx context.Context, to, name, orderNo string, amount float64) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if to == "" {
		return fmt.Errorf("recipient address is empty")
	}

	subject := fmt.Sprintf("訂單 %s 已收到款項", orderNo)
	body := fmt.Sprintf("%s 您好，\n\n訂單 %s 的款項 NT$%.0f 已確認收到，我們會盡快安排出貨。\n\n感謝您的訂購！", name, orderNo, amount)

	message := mail.NewSingleEmail(
		mail.NewEmail(c.fromName, c.fromAddr),
		subject,
		mail.NewEmail(name, to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	response, err := sendgrid.NewSendClient(c.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	c.logger.WithFields(logrus.Fields{
		"to":      to,
		"orderNo": orderNo,
	}).Info("Payment confirmation sent")
	return nil
}
