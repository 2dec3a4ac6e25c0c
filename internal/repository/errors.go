package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

// ============================================
// 仓储层错误码
// ============================================

// ErrorCode 仓储层稳定错误码，供上层映射HTTP状态
type ErrorCode string

const (
	// ErrNotFound 记录不存在（certificate / status / payment_type 等）
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrInvalidStatus 状态名在 certificate_statuses 表中不存在
	ErrInvalidStatus ErrorCode = "INVALID_STATUS"
	// ErrInvalidCertificateType 类型名无法解析且无法即时创建
	ErrInvalidCertificateType ErrorCode = "INVALID_CERTIFICATE_TYPE"
	// ErrDatabase 数据库层错误（连接、语法、约束等）
	ErrDatabase ErrorCode = "DATABASE_ERROR"
	// ErrUnexpected 兜底错误码
	ErrUnexpected ErrorCode = "UNEXPECTED_ERROR"
)

// Error 带错误码的仓储错误，包装底层 error 保留链路
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError 构造带错误码的仓储错误
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf 提取错误链上的仓储错误码
// 非仓储错误归类：sql.ErrNoRows -> NOT_FOUND，其余 -> UNEXPECTED_ERROR
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return ErrUnexpected
}

// ============================================
// Postgres 错误分类
// ============================================

// pq错误码（https://www.postgresql.org/docs/current/errcodes-appendix.html）
const (
	pqUndefinedTable  = "42P01"
	pqUndefinedColumn = "42703"
	pqUniqueViolation = "23505"
)

// IsRelationMissing 判断错误是否为"表/列不存在"
// 用于多候选表探测：候选表缺失不是失败，继续探测下一个
func IsRelationMissing(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) == pqUndefinedTable || string(pqErr.Code) == pqUndefinedColumn {
			return true
		}
	}
	// 驱动未携带SQLSTATE时退化为消息匹配
	msg := err.Error()
	return strings.Contains(msg, "does not exist") &&
		(strings.Contains(msg, "relation") || strings.Contains(msg, "column") || strings.Contains(msg, "table"))
}

// IsUniqueViolation 判断错误是否为唯一约束冲突（23505）
// 按名称即时创建时并发冲突后应回查一次
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
