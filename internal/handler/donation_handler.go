package handler

import (
	"fmt"
	"net/http"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/logic"
	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

// DonationHandler 捐款处理器
type DonationHandler struct {
	donationLogic *logic.DonationLogic
	callbackURL   string
}

// NewDonationHandler 创建捐款处理器，callbackURL 为空时按请求地址生成
func NewDonationHandler(donationLogic *logic.DonationLogic, callbackURL string) *DonationHandler {
	return &DonationHandler{
		donationLogic: donationLogic,
		callbackURL:   callbackURL,
	}
}

// Donate 提交捐款并返回网关支付地址
func (h *DonationHandler) Donate(c *gin.Context) {
	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.donationLogic.Submit(c.Request.Context(), req.ToSubmitDonationRequest(), h.resolveCallbackURL(c))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", ToDonateResponse(result))
}

// VerifyPayment 网关回调或前端轮询时确认支付
func (h *DonationHandler) VerifyPayment(c *gin.Context) {
	if _, err := h.donationLogic.Verify(c.Request.Context(), c.Query("reference")); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Payment verified successfully", nil)
}

// ListDonations 获取支付成功的捐款
func (h *DonationHandler) ListDonations(c *gin.Context) {
	donations, err := h.donationLogic.ListSuccessful(c.Request.Context())
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", donations)
}

// PaymentQRCode 返回支付地址的二维码，方便在手机上完成支付
func (h *DonationHandler) PaymentQRCode(c *gin.Context) {
	donation, err := h.donationLogic.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}
	if donation.AuthorizationURL == "" {
		ErrorResponse(c, http.StatusNotFound, "No payment link for this donation")
		return
	}

	png, err := qrcode.Encode(donation.AuthorizationURL, qrcode.Medium, qrCodeSize)
	if err != nil {
		logger.Error("Failed to encode qr code (ref=%s): %v", donation.Reference, err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate qr code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *DonationHandler) resolveCallbackURL(c *gin.Context) string {
	if h.callbackURL != "" {
		return h.callbackURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s/api/verify_payment", scheme, c.Request.Host)
}
