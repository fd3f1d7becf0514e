package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"sheet-sync-service/internal/clients"
	"sheet-sync-service/internal/models"
)

// MockPaymentClient is a mock implementation of clients.PaymentClient
type MockPaymentClient struct {
	mock.Mock
}

var _ clients.PaymentClient = (*MockPaymentClient)(nil)

func (m *MockPaymentClient) GetPayment(ctx context.Context, paymentID string) (*clients.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.Payment), args.Error(1)
}

// MockNotificationClient is a mock implementation of clients.NotificationClient
type MockNotificationClient struct {
	mock.Mock
}

var _ clients.NotificationClient = (*MockNotificationClient)(nil)

func (m *MockNotificationClient) SendPaymentConfirmation(ctx context.Context, to, name, orderNo string, amount float64) error {
	args := m.Called(ctx, to, name, orderNo, amount)
	return args.Error(0)
}

type paymentFixture struct {
	service   *PaymentService
	orderRepo *MockOrderRepository
	userRepo  *MockUserRepository
	payments  *MockPaymentClient
	notifier  *MockNotificationClient
	sheet     *fakeSheetClient
}

func newPaymentFixture(grid [][]string) *paymentFixture {
	sheet := newFakeSheetClient(grid)
	orderRepo := new(MockOrderRepository)
	userRepo := new(MockUserRepository)
	payments := new(MockPaymentClient)
	notifier := new(MockNotificationClient)
	guard := NewLoopGuard()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	writer := NewMasterWriter(sheet, orderRepo, userRepo, guard, "Master", logger)
	service := NewPaymentService(orderRepo, userRepo, writer, payments, notifier, logger)
	return &paymentFixture{
		service:   service,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		payments:  payments,
		notifier:  notifier,
		sheet:     sheet,
	}
}

func paidGrid() [][]string {
	header := canonicalMasterHeader()
	row := make([]string, len(header))
	row[0] = "ORD-1"
	return [][]string{header, row}
}

func paidOrder() *models.Order {
	return &models.Order{
		OrderNo:     "ORD-1",
		UserPhone:   "5550100",
		TotalAmount: 540,
		PaidStatus:  models.PaidStatusPaid,
		PaymentID:   "pay_123",
		Remarks:     "週五自取",
	}
}

func TestMarkOrderPaidAppliesCaptureEverywhere(t *testing.T) {
	fx := newPaymentFixture(paidGrid())

	fx.payments.On("GetPayment", mock.Anything, "pay_123").Return(&clients.Payment{
		ID:      "pay_123",
		OrderNo: "ORD-1",
		Amount:  540,
		Status:  clients.PaymentStatusCaptured,
	}, nil)
	fx.orderRepo.On("PatchFields", mock.Anything, "ORD-1", map[string]interface{}{
		"paid_status": "已付款",
		"payment_id":  "pay_123",
	}).Return(nil)
	fx.orderRepo.On("GetByOrderNo", mock.Anything, "ORD-1").Return(paidOrder(), nil)
	fx.userRepo.On("GetByPhone", mock.Anything, "5550100").Return(&models.User{
		Phone: "5550100", Name: "王小明", Email: "ming@example.com",
	}, nil)
	fx.notifier.On("SendPaymentConfirmation", mock.Anything, "ming@example.com", "王小明", "ORD-1", 540.0).Return(nil)

	err := fx.service.MarkOrderPaid(context.Background(), "ORD-1", "pay_123")
	assert.NoError(t, err)

	// The sheet patch lands on the order's paid status cell.
	assert.Equal(t, [][]interface{}{{"已付款"}}, fx.sheet.updates["Master!J2"])
	assert.Equal(t, [][]interface{}{{"pay_123"}}, fx.sheet.updates["Master!Y2"])

	fx.orderRepo.AssertExpectations(t)
	fx.notifier.AssertExpectations(t)
}

func TestMarkOrderPaidRejectsUncapturedPayment(t *testing.T) {
	fx := newPaymentFixture(paidGrid())

	fx.payments.On("GetPayment", mock.Anything, "pay_456").Return(&clients.Payment{
		ID:     "pay_456",
		Status: "PENDING",
	}, nil)

	err := fx.service.MarkOrderPaid(context.Background(), "ORD-1", "pay_456")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not captured")
	fx.orderRepo.AssertNotCalled(t, "PatchFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkOrderPaidFailsWhenGatewayUnreachable(t *testing.T) {
	fx := newPaymentFixture(paidGrid())

	fx.payments.On("GetPayment", mock.Anything, "pay_789").Return(nil, errors.New("connection refused"))

	err := fx.service.MarkOrderPaid(context.Background(), "ORD-1", "pay_789")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to verify payment pay_789")
}

func TestMarkOrderPaidSurvivesSheetPatchFailure(t *testing.T) {
	// No ORD-9 block on the sheet, so the write-back cannot find a row.
	fx := newPaymentFixture([][]string{canonicalMasterHeader()})

	fx.payments.On("GetPayment", mock.Anything, "pay_123").Return(&clients.Payment{
		ID: "pay_123", Status: clients.PaymentStatusCaptured,
	}, nil)
	fx.orderRepo.On("PatchFields", mock.Anything, "ORD-9", mock.Anything).Return(nil)
	fx.orderRepo.On("GetByOrderNo", mock.Anything, "ORD-9").Return(nil, errors.New("record not found"))

	err := fx.service.MarkOrderPaid(context.Background(), "ORD-9", "pay_123")
	assert.NoError(t, err, "the database capture is authoritative, sheet errors only warn")
}

func TestMarkOrderPaidSkipsEmailWithoutAddress(t *testing.T) {
	fx := newPaymentFixture(paidGrid())

	fx.payments.On("GetPayment", mock.Anything, "pay_123").Return(&clients.Payment{
		ID: "pay_123", Status: clients.PaymentStatusCaptured,
	}, nil)
	fx.orderRepo.On("PatchFields", mock.Anything, "ORD-1", mock.Anything).Return(nil)
	fx.orderRepo.On("GetByOrderNo", mock.Anything, "ORD-1").Return(paidOrder(), nil)
	fx.userRepo.On("GetByPhone", mock.Anything, "5550100").Return(&models.User{Phone: "5550100"}, nil)

	err := fx.service.MarkOrderPaid(context.Background(), "ORD-1", "pay_123")
	assert.NoError(t, err)
	fx.notifier.AssertNotCalled(t, "SendPaymentConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
