package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/logger"
	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"
)

// SuccessStatus 网关交易成功的状态值
const SuccessStatus = "success"

const (
	reasonNotConfigured      = "Payment service not configured"
	reasonUnavailable        = "Payment service unavailable"
	reasonInitializeFailed   = "Payment initialization failed"
	reasonVerificationFailed = "Payment verification failed"
)

// InitializeResult 初始化交易结果，Accepted 为 false 时 Reason 给出原因
type InitializeResult struct {
	Accepted         bool
	AuthorizationURL string
	AccessCode       string
	Reason           string
}

// VerifyResult 查询交易结果
type VerifyResult struct {
	Accepted        bool
	RemoteStatus    string
	GatewayResponse string
	Amount          int64 // 最小货币单位
	Reason          string
}

// Succeeded 网关确认交易成功
func (r VerifyResult) Succeeded() bool {
	return r.Accepted && r.RemoteStatus == SuccessStatus
}

// Client Paystack 客户端
type Client struct {
	secretKey  string
	configured bool
	baseURL    string
	currency   string
	channels   []string
	httpClient *http.Client
	pool       *ants.Pool // 限制并发的外部请求数
}

// New 创建客户端
func New(cfg config.PaystackConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		secretKey:  cfg.SecretKey,
		configured: cfg.Configured(),
		baseURL:    cfg.BaseURL,
		currency:   cfg.Currency,
		channels:   cfg.Channels,
		httpClient: &http.Client{Timeout: timeout},
	}

	if cfg.MaxConcurrency > 0 {
		pool, err := ants.NewPool(cfg.MaxConcurrency)
		if err != nil {
			logger.Error("Failed to create paystack pool, calls will run inline: %v", err)
		} else {
			c.pool = pool
		}
	}

	return c
}

// Close 释放协程池
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Configured 是否配置了密钥
func (c *Client) Configured() bool {
	return c.configured
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url"`
	Channels    []string `json:"channels"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	GatewayResponse string `json:"gateway_response"`
}

// ToMinorUnits 主货币单位转换为最小单位（×100 取整），超出 int64 时 ok 为 false
func ToMinorUnits(amount decimal.Decimal) (minor int64, ok bool) {
	n := amount.Shift(2).BigInt()
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// Initialize 初始化交易，失败时返回带原因的结果而不是错误
func (c *Client) Initialize(ctx context.Context, email string, amount decimal.Decimal, reference, callbackURL string) InitializeResult {
	if !c.Configured() {
		logger.Error("Cannot initialize payment without Paystack API key")
		return InitializeResult{Reason: reasonNotConfigured}
	}

	minor, ok := ToMinorUnits(amount)
	if !ok || minor <= 0 {
		logger.Error("Amount %s cannot be charged in minor units (ref=%s)", amount.String(), reference)
		return InitializeResult{Reason: reasonInitializeFailed}
	}

	body, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      minor,
		Currency:    c.currency,
		Reference:   reference,
		CallbackURL: callbackURL,
		Channels:    c.channels,
	})
	if err != nil {
		logger.Error("Failed to encode paystack request: %v", err)
		return InitializeResult{Reason: reasonUnavailable}
	}

	env, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		logger.Error("Paystack API error: %v", err)
		return InitializeResult{Reason: reasonUnavailable}
	}
	if !env.Status {
		return InitializeResult{Reason: orDefault(env.Message, reasonInitializeFailed)}
	}

	var data initializeData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AuthorizationURL == "" {
		logger.Error("Paystack initialize returned no authorization url (ref=%s): %v", reference, err)
		return InitializeResult{Reason: reasonInitializeFailed}
	}

	return InitializeResult{
		Accepted:         true,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}
}

// Verify 查询交易状态
func (c *Client) Verify(ctx context.Context, reference string) VerifyResult {
	if !c.Configured() {
		return VerifyResult{Reason: reasonNotConfigured}
	}

	env, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		logger.Error("Paystack verification error: %v", err)
		return VerifyResult{Reason: reasonVerificationFailed}
	}
	if !env.Status {
		return VerifyResult{Reason: orDefault(env.Message, reasonVerificationFailed)}
	}

	var data verifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		logger.Error("Failed to decode paystack verify data (ref=%s): %v", reference, err)
		return VerifyResult{Reason: reasonVerificationFailed}
	}

	result := VerifyResult{
		Accepted:        true,
		RemoteStatus:    data.Status,
		GatewayResponse: data.GatewayResponse,
		Amount:          data.Amount,
	}
	if data.Status != SuccessStatus {
		// gateway_response 比外层 message 更具体
		result.Reason = orDefault(data.GatewayResponse, orDefault(env.Message, reasonVerificationFailed))
	}
	return result
}

// do 在协程池中执行请求并等待结果
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*envelope, error) {
	var (
		env  *envelope
		err  error
		done = make(chan struct{})
	)

	task := func() {
		defer close(done)
		env, err = c.send(ctx, method, path, body)
	}

	if c.pool == nil {
		task()
		return env, err
	}
	if submitErr := c.pool.Submit(task); submitErr != nil {
		return nil, fmt.Errorf("submit paystack request: %w", submitErr)
	}
	<-done
	return env, err
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Paystack 在 4xx 时同样返回 {status:false, message}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (http %d): %w", resp.StatusCode, err)
	}
	return &env, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
