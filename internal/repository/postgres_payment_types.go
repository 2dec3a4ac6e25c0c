package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cayden6ix/certidoes-app-sub002/internal/domain"
)

// PostgresPaymentTypesRepository 支付方式Repository实现
type PostgresPaymentTypesRepository struct {
	db *sql.DB
}

// NewPostgresPaymentTypesRepository 创建支付方式Repository
func NewPostgresPaymentTypesRepository(db *sql.DB) *PostgresPaymentTypesRepository {
	return &PostgresPaymentTypesRepository{db: db}
}

// 确保实现了接口
var _ PaymentTypesRepository = (*PostgresPaymentTypesRepository)(nil)

// GetPaymentType 根据payment_type_id获取支付方式
func (r *PostgresPaymentTypesRepository) GetPaymentType(ctx context.Context, paymentTypeID string) (*domain.PaymentType, error) {
	if paymentTypeID == "" {
		return nil, fmt.Errorf("payment_type_id is required")
	}

	query := `
		SELECT payment_type_id::text, payment_type_name
		FROM payment_types
		WHERE payment_type_id = $1`

	var paymentType domain.PaymentType
	err := r.db.QueryRowContext(ctx, query, paymentTypeID).Scan(
		&paymentType.PaymentTypeID, &paymentType.PaymentTypeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewError(ErrNotFound, "payment type not found", err)
		}
		return nil, NewError(ErrDatabase, "failed to get payment type", err)
	}
	return &paymentType, nil
}

// ListPaymentTypes 查询全部支付方式，按名称排序
func (r *PostgresPaymentTypesRepository) ListPaymentTypes(ctx context.Context) ([]*domain.PaymentType, error) {
	query := `
		SELECT payment_type_id::text, payment_type_name
		FROM payment_types
		ORDER BY payment_type_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewError(ErrDatabase, "failed to list payment types", err)
	}
	defer rows.Close()

	paymentTypes := []*domain.PaymentType{}
	for rows.Next() {
		var paymentType domain.PaymentType
		if err := rows.Scan(&paymentType.PaymentTypeID, &paymentType.PaymentTypeName); err != nil {
			return nil, NewError(ErrDatabase, "failed to scan payment type", err)
		}
		paymentTypes = append(paymentTypes, &paymentType)
	}
	if err := rows.Err(); err != nil {
		return nil, NewError(ErrDatabase, "failed to iterate payment types", err)
	}
	return paymentTypes, nil
}
