package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"safechat-go/internal/config"
	"safechat-go/pkg/log"
)

// JailbreakChecker 定义提示词注入检测器的接口。
type JailbreakChecker interface {
	// IsSafe 返回文本是否未检测到越狱尝试。
	IsSafe(ctx context.Context, text string) bool
}

type promptShieldClient struct {
	cfg    config.ModerationConfig
	client *http.Client
}

// NewJailbreakChecker 创建基于 Prompt Shield 的越狱检测器。
func NewJailbreakChecker(cfg config.ModerationConfig) JailbreakChecker {
	return &promptShieldClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type shieldRequest struct {
	UserPrompt string   `json:"userPrompt"`
	Documents  []string `json:"documents"`
}

type shieldResponse struct {
	UserPromptAnalysis struct {
		AttackDetected bool `json:"attackDetected"`
	} `json:"userPromptAnalysis"`
}

// IsSafe 调用 shieldPrompt 接口。任何调用失败都按不安全处理（fail closed）。
func (c *promptShieldClient) IsSafe(ctx context.Context, text string) bool {
	body, err := json.Marshal(shieldRequest{UserPrompt: text, Documents: []string{}})
	if err != nil {
		log.Errorf("序列化越狱检测请求失败: %v", err)
		return false
	}

	url := fmt.Sprintf("%s/contentsafety/text:shieldPrompt?api-version=%s", c.cfg.Endpoint, c.cfg.ShieldAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Errorf("构造越狱检测请求失败: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("越狱检测服务调用失败: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("越狱检测服务返回非预期状态码: %d", resp.StatusCode)
		return false
	}

	var analyzed shieldResponse
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		log.Errorf("解析越狱检测响应失败: %v", err)
		return false
	}

	return !analyzed.UserPromptAnalysis.AttackDetected
}
