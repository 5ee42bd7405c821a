package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Reading 模拟设备上报的字段（与 POST /api/sensor 一致）
type Reading struct {
	PatientID   int      `json:"patient_id"`
	PulseRate   int      `json:"pulse_rate"`
	Temperature *float64 `json:"temperature,omitempty"`
	OxygenLevel *float64 `json:"oxygen_level,omitempty"`
	DeviceID    string   `json:"device_id,omitempty"`
}

type ingestResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIError 接口返回了非 2xx
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client healthmon-api 客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	// 只对 5xx 重试；4xx 是数据问题，重发也一样
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})

	return &Client{httpClient: client, logger: logger}
}

// PostReading 上报一条读数，返回新行 id
func (c *Client) PostReading(ctx context.Context, rd Reading) (int64, error) {
	var result ingestResponse
	var apiErr errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(rd).
		SetResult(&result).
		SetError(&apiErr).
		Post("/api/sensor")
	if err != nil {
		return 0, fmt.Errorf("failed to call healthmon API: %w", err)
	}
	if resp.IsError() {
		return 0, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error}
	}

	c.logger.Debug("Reading posted",
		zap.Int64("id", result.ID),
		zap.String("device_id", rd.DeviceID),
	)
	return result.ID, nil
}

// RegisterDevice 启动时先登记设备
func (c *Client) RegisterDevice(ctx context.Context, deviceID string, patientID int) error {
	var apiErr errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"device_id": deviceID, "patient_id": patientID}).
		SetError(&apiErr).
		Post("/api/devices")
	if err != nil {
		return fmt.Errorf("failed to call healthmon API: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Message: apiErr.Error}
	}
	return nil
}
