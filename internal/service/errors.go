package service

import "fmt"

// ValidationError 输入校验错误
// HTTP层据此映射为400，与仓储错误码体系分开
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError 构造输入校验错误
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}
