package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/database"
	"github.com/blues/fundraiser/internal/middleware"
	"github.com/blues/fundraiser/internal/model"
	"github.com/blues/fundraiser/internal/paystack"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubGateway struct {
	verify       paystack.VerifyResult
	lastCallback string
}

func (g *stubGateway) Initialize(_ context.Context, _ string, _ decimal.Decimal, reference, callbackURL string) paystack.InitializeResult {
	g.lastCallback = callbackURL
	return paystack.InitializeResult{
		Accepted:         true,
		AuthorizationURL: "https://checkout.paystack.com/" + reference,
	}
}

func (g *stubGateway) Verify(context.Context, string) paystack.VerifyResult {
	return g.verify
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	engine  *gin.Engine
	db      *gorm.DB
	gateway *stubGateway
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	return newTestServerWithProxies(t, limiter, nil)
}

func newTestServerWithProxies(t *testing.T, limiter *middleware.RateLimiter, proxies []string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{AllowOrigins: []string{"*"}, TrustedProxies: proxies},
		Event:  config.EventConfig{Name: "Fund", Description: "desc", Goal: 5000, CurrentAmount: 2250},
	}

	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "api.db")}, cfg.Event)
	if err != nil {
		t.Fatalf("database.Init failed: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	gw := &stubGateway{verify: paystack.VerifyResult{Accepted: true, RemoteStatus: paystack.SuccessStatus}}
	engine, err := Setup(db, gw, cfg, limiter)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	return &testServer{
		engine:  engine,
		db:      db,
		gateway: gw,
	}
}

func (s *testServer) donateFrom(t *testing.T, forwardedFor string) int {
	t.Helper()

	raw, _ := json.Marshal(validDonation())
	req := httptest.NewRequest(http.MethodPost, "/api/donate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w.Code
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Header().Get("Content-Type") != "image/png" {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func validDonation() map[string]interface{} {
	return map[string]interface{}{
		"name":          "A",
		"email":         "a@x.com",
		"phone":         "1",
		"amount":        100,
		"paymentMethod": "card",
		"message":       "Stay strong",
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w, resp := s.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK || resp.Status != "success" || resp.Message != "API is running" {
		t.Errorf("unexpected health response %d %+v", w.Code, resp)
	}
}

func TestGetEvent(t *testing.T) {
	s := newTestServer(t, nil)

	w, resp := s.do(t, http.MethodGet, "/api/event", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var event map[string]interface{}
	if err := json.Unmarshal(resp.Data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event["name"] != "Fund" || event["status"] != "active" {
		t.Errorf("unexpected event %v", event)
	}
	if event["goal"] != float64(5000) || event["current_amount"] != float64(2250) {
		t.Errorf("amounts should be JSON numbers, got %v / %v", event["goal"], event["current_amount"])
	}
}

func TestGetEventNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	s.db.Model(&model.EventModel{}).Where("1 = 1").Update("status", model.EventStatusClosed)

	w, resp := s.do(t, http.MethodGet, "/api/event", nil)
	if w.Code != http.StatusNotFound || resp.Status != "error" || resp.Message != "No active event found" {
		t.Errorf("unexpected response %d %+v", w.Code, resp)
	}
}

func TestDonationFlow(t *testing.T) {
	s := newTestServer(t, nil)

	w, resp := s.do(t, http.MethodPost, "/api/donate", validDonation())
	if w.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("donate failed: %d %+v", w.Code, resp)
	}

	var donated struct {
		Reference        string `json:"reference"`
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := json.Unmarshal(resp.Data, &donated); err != nil {
		t.Fatalf("decode donate data: %v", err)
	}
	if donated.AuthorizationURL != "https://checkout.paystack.com/"+donated.Reference {
		t.Errorf("unexpected authorization url %q", donated.AuthorizationURL)
	}
	if s.gateway.lastCallback != "http://example.com/api/verify_payment" {
		t.Errorf("unexpected callback url %q", s.gateway.lastCallback)
	}

	// 未确认的捐款不出现在列表中
	_, resp = s.do(t, http.MethodGet, "/api/donations", nil)
	if string(resp.Data) != "[]" {
		t.Errorf("expected empty list before verification, got %s", resp.Data)
	}

	w, resp = s.do(t, http.MethodGet, "/api/verify_payment?reference="+donated.Reference, nil)
	if w.Code != http.StatusOK || resp.Message != "Payment verified successfully" {
		t.Fatalf("verify failed: %d %+v", w.Code, resp)
	}

	// 重复确认同样返回成功但不重复累加
	s.do(t, http.MethodGet, "/api/verify_payment?reference="+donated.Reference, nil)

	_, resp = s.do(t, http.MethodGet, "/api/donations", nil)
	var donations []map[string]interface{}
	if err := json.Unmarshal(resp.Data, &donations); err != nil {
		t.Fatalf("decode donations: %v", err)
	}
	if len(donations) != 1 {
		t.Fatalf("expected 1 donation, got %d", len(donations))
	}
	if donations[0]["payment_status"] != "success" || donations[0]["reference"] != donated.Reference {
		t.Errorf("unexpected donation %v", donations[0])
	}
	if _, leaked := donations[0]["authorization_url"]; leaked {
		t.Error("authorization url must not be listed")
	}

	_, resp = s.do(t, http.MethodGet, "/api/event", nil)
	var event map[string]interface{}
	json.Unmarshal(resp.Data, &event)
	if event["current_amount"] != float64(2350) {
		t.Errorf("expected current amount 2350, got %v", event["current_amount"])
	}
}

func TestDonateValidation(t *testing.T) {
	s := newTestServer(t, nil)

	body := validDonation()
	delete(body, "phone")

	w, resp := s.do(t, http.MethodPost, "/api/donate", body)
	if w.Code != http.StatusBadRequest || resp.Message != "Missing required field: phone" {
		t.Errorf("unexpected response %d %+v", w.Code, resp)
	}

	w, _ = s.do(t, http.MethodPost, "/api/donate", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}

	var count int64
	s.db.Model(&model.DonationModel{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no donations, got %d", count)
	}
}

func TestDonateAcceptsStringAmount(t *testing.T) {
	s := newTestServer(t, nil)

	body := validDonation()
	body["amount"] = "25.50"

	w, resp := s.do(t, http.MethodPost, "/api/donate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", w.Code, resp)
	}
}

func TestVerifyPaymentErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w, resp := s.do(t, http.MethodGet, "/api/verify_payment", nil)
	if w.Code != http.StatusBadRequest || resp.Message != "No reference provided" {
		t.Errorf("unexpected response %d %+v", w.Code, resp)
	}

	s.gateway.verify = paystack.VerifyResult{Accepted: true, RemoteStatus: "failed", Reason: "Declined"}
	w, resp = s.do(t, http.MethodGet, "/api/verify_payment?reference=FUND-x", nil)
	if w.Code != http.StatusBadRequest || resp.Status != "error" || resp.Message != "Declined" {
		t.Errorf("unexpected response %d %+v", w.Code, resp)
	}
}

func TestDonateRateLimited(t *testing.T) {
	s := newTestServer(t, middleware.NewRateLimiter(0.001, 1))

	w, _ := s.do(t, http.MethodPost, "/api/donate", validDonation())
	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}

	w, resp := s.do(t, http.MethodPost, "/api/donate", validDonation())
	if w.Code != http.StatusTooManyRequests || resp.Status != "error" {
		t.Errorf("expected 429, got %d %+v", w.Code, resp)
	}

	// 只限制捐款接口
	w, _ = s.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health should not be rate limited, got %d", w.Code)
	}
}

func TestDonateRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	s := newTestServer(t, middleware.NewRateLimiter(0.001, 1))

	if code := s.donateFrom(t, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", code)
	}
	for i := 2; i <= 20; i++ {
		if code := s.donateFrom(t, fmt.Sprintf("10.0.0.%d", i)); code != http.StatusTooManyRequests {
			t.Fatalf("request %d with rotated X-Forwarded-For got %d, want 429", i, code)
		}
	}
}

func TestDonateRateLimitHonorsTrustedProxy(t *testing.T) {
	// httptest 请求来自 192.0.2.1
	s := newTestServerWithProxies(t, middleware.NewRateLimiter(0.001, 1), []string{"192.0.2.1"})

	if code := s.donateFrom(t, "203.0.113.1"); code != http.StatusOK {
		t.Fatalf("first client should pass, got %d", code)
	}
	if code := s.donateFrom(t, "203.0.113.2"); code != http.StatusOK {
		t.Errorf("second client behind trusted proxy should pass, got %d", code)
	}
	if code := s.donateFrom(t, "203.0.113.1"); code != http.StatusTooManyRequests {
		t.Errorf("repeat client should be limited, got %d", code)
	}
}

func TestSetupRejectsInvalidTrustedProxy(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{TrustedProxies: []string{"not-an-ip"}}}
	if _, err := Setup(nil, &stubGateway{}, cfg, nil); err == nil {
		t.Error("expected error for invalid trusted proxy")
	}
}

func TestPaymentQRCode(t *testing.T) {
	s := newTestServer(t, nil)

	_, resp := s.do(t, http.MethodPost, "/api/donate", validDonation())
	var donated struct {
		Reference string `json:"reference"`
	}
	json.Unmarshal(resp.Data, &donated)

	w, _ := s.do(t, http.MethodGet, "/api/donations/"+donated.Reference+"/qrcode", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a png")
	}

	w, resp = s.do(t, http.MethodGet, "/api/donations/FUND-missing/qrcode", nil)
	if w.Code != http.StatusNotFound || resp.Message != "Donation not found" {
		t.Errorf("unexpected response %d %+v", w.Code, resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/donate", nil)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard origin, got %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
