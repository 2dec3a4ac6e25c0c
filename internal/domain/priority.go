package domain

import (
	"strconv"
	"strings"
)

// Priority 证书申请优先级
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority 解析历史遗留的priority编码
// 旧数据写入数字（"0"、"1"、"2"），新数据写入符号值（"normal"、"urgent"）
// 数字 >= 1 视为urgent；无法识别的值一律归一化为normal
func ParsePriority(raw string) Priority {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case string(PriorityUrgent):
		return PriorityUrgent
	case string(PriorityNormal), "":
		return PriorityNormal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 {
		return PriorityUrgent
	}
	return PriorityNormal
}

// IsValid 判断是否为已知的符号值
func (p Priority) IsValid() bool {
	return p == PriorityNormal || p == PriorityUrgent
}

// IsRecognizedPriority 判断原始编码是否可识别
// 读取侧的ParsePriority对未知值宽松归一化（兼容旧数据），
// 写入侧用本函数校验，未知值直接拒绝
func IsRecognizedPriority(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == string(PriorityNormal) || s == string(PriorityUrgent) {
		return true
	}
	_, err := strconv.Atoi(s)
	return err == nil
}
