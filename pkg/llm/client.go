// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"safechat-go/internal/config"
	"safechat-go/pkg/log"
)

// apologyResponse 是模型调用失败时的统一降级回复。
const apologyResponse = "⚠️ Sorry, I couldn't process your request."

// Message 表示一条角色消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for an LLM client.
type Client interface {
	// Complete 以系统提示词加历史消息调用聊天接口，返回完整回复文本。
	// 调用失败不返回错误，而是降级为固定的道歉回复。
	Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) string
}

type openAIClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a new LLM client from the config.
func NewClient(cfg config.LLMConfig) Client {
	return &openAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete 发起一次非流式 chat/completions 调用。
// 回复需要整体净化后才能返回给用户，因此这里不走流式接口。
func (c *openAIClient) Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) string {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
	}
	// 零值参数不下发，交给服务端默认。
	if c.cfg.Generation.Temperature > 0 {
		t := c.cfg.Generation.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.Generation.TopP > 0 {
		p := c.cfg.Generation.TopP
		reqBody.TopP = &p
	}
	if c.cfg.Generation.MaxTokens > 0 {
		m := c.cfg.Generation.MaxTokens
		reqBody.MaxTokens = &m
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		log.Errorf("序列化 LLM 请求失败: %v", err)
		return apologyResponse
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		log.Errorf("构造 LLM 请求失败: %v", err)
		return apologyResponse
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("LLM 服务调用失败: %v", err)
		return apologyResponse
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("LLM 服务返回非预期状态码: %d", resp.StatusCode)
		return apologyResponse
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Errorf("解析 LLM 响应失败: %v", err)
		return apologyResponse
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		log.Warnf("LLM 响应为空，返回降级回复")
		return apologyResponse
	}

	return parsed.Choices[0].Message.Content
}
