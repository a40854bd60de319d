package logic

import (
	"errors"
	"fmt"
)

// ErrNoActiveEvent 没有进行中的活动
var ErrNoActiveEvent = errors.New("no active event found")

// ValidationError 请求参数校验失败，不产生任何副作用
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("Missing required field: %s", field)}
}

// GatewayError 支付网关拒绝或不可用
type GatewayError struct {
	Reason string
}

func (e *GatewayError) Error() string {
	return e.Reason
}

// ErrDonationNotFound 支付单号不存在
var ErrDonationNotFound = errors.New("donation not found")
