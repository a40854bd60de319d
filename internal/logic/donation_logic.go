package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/paystack"
	"github.com/blues/fundraiser/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// ReferencePrefix 支付单号前缀
	ReferencePrefix = "FUND-"

	maxReferenceAttempts = 5
)

// MaxAmount decimal(12,2) 列能存下的最大金额
var MaxAmount = decimal.RequireFromString("9999999999.99")

// PaymentGateway 支付网关，由 *paystack.Client 实现
type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amount decimal.Decimal, reference, callbackURL string) paystack.InitializeResult
	Verify(ctx context.Context, reference string) paystack.VerifyResult
}

// SubmitDonationRequest 捐款请求
type SubmitDonationRequest struct {
	Name          string
	Email         string
	Phone         string
	Amount        *decimal.Decimal
	PaymentMethod string
	Message       string
}

// SubmitDonationResult 捐款初始化结果
type SubmitDonationResult struct {
	Reference        string
	AuthorizationURL string
}

// VerifyPaymentResult 支付确认结果
type VerifyPaymentResult struct {
	Reference string
	// Credited 本次调用将捐款从 pending 转为 success 并累加了活动金额
	Credited bool
}

// DonationLogic 捐款状态机：created -> pending -> success | failed
type DonationLogic struct {
	db           *gorm.DB
	donations    *repository.DonationRepository
	events       *repository.EventRepository
	gateway      PaymentGateway
	newReference func() string
}

// NewDonationLogic 创建捐款业务逻辑
func NewDonationLogic(db *gorm.DB, gateway PaymentGateway) *DonationLogic {
	return &DonationLogic{
		db:           db,
		donations:    repository.NewDonationRepository(db),
		events:       repository.NewEventRepository(db),
		gateway:      gateway,
		newReference: NewReference,
	}
}

// NewReference 生成支付单号：前缀 + uuid 前 8 位
func NewReference() string {
	return ReferencePrefix + uuid.NewString()[:8]
}

// Submit 校验请求，向网关初始化交易，成功后保存 pending 捐款
func (d *DonationLogic) Submit(ctx context.Context, req SubmitDonationRequest, callbackURL string) (*SubmitDonationResult, error) {
	if err := validateSubmit(&req); err != nil {
		return nil, err
	}

	reference, err := d.uniqueReference(ctx)
	if err != nil {
		return nil, err
	}

	result := d.gateway.Initialize(ctx, req.Email, *req.Amount, reference, callbackURL)
	if !result.Accepted {
		logger.Warn("Payment initialization rejected (ref=%s): %s", reference, result.Reason)
		return nil, &GatewayError{Reason: result.Reason}
	}

	donation := &model.DonationModel{
		Id:               uuid.NewString(),
		CreatedAt:        time.Now(),
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Message:          req.Message,
		Amount:           *req.Amount,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    model.PaymentStatusPending,
		Reference:        reference,
		AuthorizationURL: result.AuthorizationURL,
	}
	if err := d.donations.Create(ctx, donation); err != nil {
		return nil, err
	}

	logger.Info("Donation %s pending (ref=%s, amount=%s)", donation.Id, reference, donation.Amount.String())
	return &SubmitDonationResult{
		Reference:        reference,
		AuthorizationURL: result.AuthorizationURL,
	}, nil
}

// Verify 向网关确认交易；只有从 pending 转为 success 的那一次会累加活动金额
func (d *DonationLogic) Verify(ctx context.Context, reference string) (*VerifyPaymentResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, &ValidationError{Field: "reference", Message: "No reference provided"}
	}

	result := d.gateway.Verify(ctx, reference)
	if !result.Succeeded() {
		moved, err := d.donations.TransitionFromPending(ctx, reference, model.PaymentStatusFailed)
		if err != nil {
			return nil, err
		}
		if moved > 0 {
			logger.Info("Donation ref=%s marked failed: %s", reference, result.Reason)
		}
		reason := result.Reason
		if reason == "" {
			reason = "Payment verification failed"
		}
		return nil, &GatewayError{Reason: reason}
	}

	out := &VerifyPaymentResult{Reference: reference}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		donations := d.donations.WithTx(tx)
		events := d.events.WithTx(tx)

		moved, err := donations.TransitionFromPending(ctx, reference, model.PaymentStatusSuccess)
		if err != nil {
			return err
		}
		if moved == 0 {
			// 单号不存在或已是终态
			return nil
		}

		donation, err := donations.FindByReference(ctx, reference)
		if err != nil {
			return err
		}
		if expected, ok := paystack.ToMinorUnits(donation.Amount); ok && result.Amount != 0 && result.Amount != expected {
			logger.Warn("Gateway amount %d differs from donation amount %d (ref=%s)", result.Amount, expected, reference)
		}

		updated, err := events.AddToActive(ctx, donation.Amount)
		if err != nil {
			return err
		}
		if updated == 0 {
			logger.Warn("No active event to credit for donation ref=%s", reference)
		}

		out.Credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Credited {
		logger.Info("Donation ref=%s verified and credited (gateway: %s)", reference, result.GatewayResponse)
	} else {
		logger.Info("Donation ref=%s verified, nothing to transition", reference)
	}
	return out, nil
}

// ListSuccessful 获取支付成功的捐款，最新的在前
func (d *DonationLogic) ListSuccessful(ctx context.Context) ([]model.DonationModel, error) {
	return d.donations.ListByStatus(ctx, model.PaymentStatusSuccess)
}

// GetByReference 根据支付单号获取捐款
func (d *DonationLogic) GetByReference(ctx context.Context, reference string) (*model.DonationModel, error) {
	donation, err := d.donations.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return donation, nil
}

// uniqueReference 生成未被占用的支付单号，冲突时重新生成
func (d *DonationLogic) uniqueReference(ctx context.Context) (string, error) {
	for i := 0; i < maxReferenceAttempts; i++ {
		reference := d.newReference()
		exists, err := d.donations.ExistsByReference(ctx, reference)
		if err != nil {
			return "", err
		}
		if !exists {
			return reference, nil
		}
		logger.Warn("Reference collision on %s, regenerating", reference)
	}
	return "", fmt.Errorf("could not generate a unique reference after %d attempts", maxReferenceAttempts)
}

// validateSubmit 按顺序校验必填字段
func validateSubmit(req *SubmitDonationRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)

	if req.Name == "" {
		return missingField("name")
	}
	if req.Email == "" {
		return missingField("email")
	}
	if req.Phone == "" {
		return missingField("phone")
	}
	if req.Amount == nil {
		return missingField("amount")
	}
	if req.PaymentMethod == "" {
		return missingField("paymentMethod")
	}
	if !req.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return &ValidationError{Field: "amount", Message: "amount must have at most two decimal places"}
	}
	if req.Amount.GreaterThan(MaxAmount) {
		return &ValidationError{Field: "amount", Message: "amount must not exceed " + MaxAmount.StringFixed(2)}
	}
	return nil
}
