package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// OpsEvent 运维事件载荷
type OpsEvent struct {
	Event     string         `json:"event"`
	Service   string         `json:"service"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// WebhookNotifier 带外运维通知客户端
// webhook URL未配置时为no-op；发送异步进行，失败只记日志不影响请求
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	service    string
	logger     *zap.Logger
}

// NewWebhookNotifier 创建webhook通知客户端
// webhookURL为空时返回的实例所有调用均为no-op
func NewWebhookNotifier(webhookURL, serviceName string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        webhookURL,
		service:    serviceName,
		logger:     logger,
	}
}

// Notify 上报一个运维事件
// 请求上下文不跟随：事件在后台发送，宿主请求结束不影响投递
func (n *WebhookNotifier) Notify(ctx context.Context, event string, fields map[string]any) {
	if n == nil || n.url == "" {
		return
	}

	payload := OpsEvent{
		Event:     event,
		Service:   n.service,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	}

	go func() {
		resp, err := n.httpClient.R().
			SetBody(payload).
			Post(n.url)
		if err != nil {
			n.logger.Warn("Failed to deliver ops event",
				zap.String("event", event),
				zap.Error(err))
			return
		}
		if resp.IsError() {
			n.logger.Warn("Ops webhook returned error status",
				zap.String("event", event),
				zap.Int("status", resp.StatusCode()))
		}
	}()
}
