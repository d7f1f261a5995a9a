package otp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"horoscope-hub/internal/domain"
	"horoscope-hub/internal/infra/metrics"
)

// MSG91Config задаёт доступ к SMS-шлюзу MSG91.
type MSG91Config struct {
	BaseURL    string
	APIKey     string
	TemplateID string
	Timeout    time.Duration
}

// MSG91 отправляет коды через API MSG91.
type MSG91 struct {
	cfg        MSG91Config
	httpClient *http.Client
}

// NewMSG91 создаёт клиента MSG91.
func NewMSG91(cfg MSG91Config) *MSG91 {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://control.msg91.com/api/v5"
	}
	return &MSG91{cfg: cfg, httpClient: &http.Client{Timeout: timeout}}
}

// SetHTTPClient подменяет HTTP-клиент.
func (c *MSG91) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

// SendOTP отправляет код на номер в формате +91XXXXXXXXXX.
func (c *MSG91) SendOTP(ctx context.Context, phone, code string) (domain.OTPResult, error) {
	if c.cfg.APIKey == "" || c.cfg.TemplateID == "" {
		return domain.OTPResult{}, fmt.Errorf("msg91: %w: api key or template is not configured", domain.ErrOTPDelivery)
	}
	mobile := strings.TrimPrefix(strings.TrimPrefix(phone, "+"), "91")

	body, err := json.Marshal(map[string]string{
		"template_id":  c.cfg.TemplateID,
		"mobile":       mobile,
		"authkey":      c.cfg.APIKey,
		"otp":          code,
		"country_code": "91",
	})
	if err != nil {
		return domain.OTPResult{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/otp"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.OTPResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("msg91", "send_otp", "sms", start, err)
	if err != nil {
		return domain.OTPResult{}, fmt.Errorf("msg91: %w: %w", domain.ErrOTPDelivery, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.OTPResult{}, fmt.Errorf("msg91: %w: read response: %w", domain.ErrOTPDelivery, err)
	}
	var parsed struct {
		Type      string `json:"type"`
		RequestID string `json:"request_id"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return domain.OTPResult{}, fmt.Errorf("msg91: %w: decode response (status %d): %w", domain.ErrOTPDelivery, resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || parsed.Type != "success" {
		return domain.OTPResult{}, fmt.Errorf("msg91: %w: %s", domain.ErrOTPDelivery, strings.TrimSpace(parsed.Message))
	}
	return domain.OTPResult{MessageID: parsed.RequestID, Message: "OTP sent successfully"}, nil
}
