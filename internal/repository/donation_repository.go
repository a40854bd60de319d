package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/fundraiser/internal/model"
	"gorm.io/gorm"
)

// DonationRepository 捐款存储
type DonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository 创建捐款存储
func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// WithTx 绑定到事务
func (r *DonationRepository) WithTx(tx *gorm.DB) *DonationRepository {
	return &DonationRepository{db: tx}
}

// Create 创建捐款记录
func (r *DonationRepository) Create(ctx context.Context, donation *model.DonationModel) error {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return fmt.Errorf("failed to create donation: %w", err)
	}
	return nil
}

// FindByReference 根据支付单号获取捐款
func (r *DonationRepository) FindByReference(ctx context.Context, reference string) (*model.DonationModel, error) {
	var donation model.DonationModel
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query donation: %w", err)
	}
	return &donation, nil
}

// ExistsByReference 支付单号是否已被使用
func (r *DonationRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DonationModel{}).Where("reference = ?", reference).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reference: %w", err)
	}
	return count > 0, nil
}

// TransitionFromPending 仅当记录仍为 pending 时更新状态，返回受影响行数
func (r *DonationRepository) TransitionFromPending(ctx context.Context, reference string, status model.PaymentStatus) (int64, error) {
	if !status.Terminal() {
		return 0, fmt.Errorf("invalid target status %q", status)
	}

	result := r.db.WithContext(ctx).
		Model(&model.DonationModel{}).
		Where("reference = ? AND payment_status = ?", reference, model.PaymentStatusPending).
		Update("payment_status", status)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update donation status: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListByStatus 按状态获取捐款，最新的在前
func (r *DonationRepository) ListByStatus(ctx context.Context, status model.PaymentStatus) ([]model.DonationModel, error) {
	donations := make([]model.DonationModel, 0)
	if err := r.db.WithContext(ctx).
		Where("payment_status = ?", status).
		Order("created_at DESC").
		Find(&donations).Error; err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	return donations, nil
}
