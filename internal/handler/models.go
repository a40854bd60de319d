package handler

import (
	"github.com/blues/fundraiser/internal/logic"
	"github.com/shopspring/decimal"
)

// Response 通用响应结构
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// DonateRequest 捐款请求，amount 可以是数字或字符串
type DonateRequest struct {
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"paymentMethod"`
	Message       string           `json:"message"`
}

// DonateResponse 捐款响应
type DonateResponse struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
}

// ToSubmitDonationRequest 转换为 logic 层请求
func (r DonateRequest) ToSubmitDonationRequest() logic.SubmitDonationRequest {
	return logic.SubmitDonationRequest{
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Message:       r.Message,
	}
}

// ToDonateResponse 转换 logic 层结果
func ToDonateResponse(result *logic.SubmitDonationResult) DonateResponse {
	return DonateResponse{
		Reference:        result.Reference,
		AuthorizationURL: result.AuthorizationURL,
	}
}
