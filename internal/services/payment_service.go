package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"sheet-sync-service/internal/clients"
	"sheet-sync-service/internal/models"
	"sheet-sync-service/internal/repository"
)

// PaymentService applies confirmed payments to the database and pushes the
// status change out to the Master sheet and the buyer.
type PaymentService struct {
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	writer    *MasterWriter
	payments  clients.PaymentClient
	notifier  clients.NotificationClient
	logger    *logrus.Entry
}

// NewPaymentService creates a new payment service. The payment gateway
// client may be nil; captures are then applied without re-verification.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	writer *MasterWriter,
	payments clients.PaymentClient,
	notifier clients.NotificationClient,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		writer:    writer,
		payments:  payments,
		notifier:  notifier,
		logger:    logger.WithField("component", "payment-service"),
	}
}

// MarkOrderPaid records a captured payment against an order. The database
// is the authority; the Master sheet patch and the buyer email are best
// effort and never roll the capture back.
func (s *PaymentService) MarkOrderPaid(ctx context.Context, orderNo, paymentID string) error {
	if s.payments != nil {
		payment, err := s.payments.GetPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to verify payment %s: %w", paymentID, err)
		}
		if payment.Status != clients.PaymentStatusCaptured {
			return fmt.Errorf("payment %s is %s, not captured", paymentID, payment.Status)
		}
	}

	if err := s.orderRepo.PatchFields(ctx, orderNo, map[string]interface{}{
		"paid_status": string(models.PaidStatusPaid),
		"payment_id":  paymentID,
	}); err != nil {
		return err
	}

	if err := s.writer.PatchOrder(ctx, orderNo); err != nil {
		s.logger.WithField("orderNo", orderNo).WithError(err).Warn("Failed to patch paid status on master sheet")
	}

	s.sendConfirmation(ctx, orderNo)

	s.logger.WithFields(logrus.Fields{
		"orderNo":   orderNo,
		"paymentId": paymentID,
	}).Info("Order marked as paid")
	return nil
}

func (s *PaymentService) sendConfirmation(ctx context.Context, orderNo string) {
	if s.notifier == nil {
		return
	}

	order, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		s.logger.WithField("orderNo", orderNo).WithError(err).Warn("Order not found for confirmation email")
		return
	}

	user, err := s.userRepo.GetByPhone(ctx, order.UserPhone)
	if err != nil || user.Email == "" {
		s.logger.WithField("orderNo", orderNo).Debug("Buyer has no email address, skipping confirmation")
		return
	}

	if err := s.notifier.SendPaymentConfirmation(ctx, user.Email, user.Name, orderNo, order.TotalAmount); err != nil {
		s.logger.WithField("orderNo", orderNo).WithError(err).Warn("Failed to send payment confirmation")
	}
}
