package repository

import (
	"context"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// PaymentTypesRepository 支付方式Repository接口
// 支付方式行假定预置种子数据，本层不提供创建
type PaymentTypesRepository interface {
	// GetPaymentType 根据payment_type_id获取支付方式
	GetPaymentType(ctx context.Context, paymentTypeID string) (*domain.PaymentType, error)

	// ListPaymentTypes 查询全部支付方式（小目录，按名称排序）
	ListPaymentTypes(ctx context.Context) ([]*domain.PaymentType, error)
}
