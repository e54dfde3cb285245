// Package moderation 提供了与内容安全服务交互的客户端功能。
package moderation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"safechat-go/internal/config"
	"safechat-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// Result 是一次内容安全检查的判定结果。
// Categories 固定包含四个类别键，严重度为 0-7 的整数。
type Result struct {
	Allowed    bool           `json:"allowed"`
	Categories map[string]int `json:"categories"`
}

// Checker 定义内容安全检查器的接口。
type Checker interface {
	Check(ctx context.Context, text string) Result
}

// 服务端类别名到内部类别名的映射。
var categoryNames = map[string]string{
	"Hate":     "hate",
	"SelfHarm": "self_harm",
	"Sexual":   "sexual",
	"Violence": "violence",
}

const defaultSeverityThreshold = 2

type azureContentClient struct {
	cfg    config.ModerationConfig
	client *http.Client
	rdb    *redis.Client
}

// NewContentChecker 创建基于 Azure Content Safety 的检查器。
// rdb 可为 nil，此时不启用结果缓存。
func NewContentChecker(cfg config.ModerationConfig, rdb *redis.Client) Checker {
	return &azureContentClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		rdb:    rdb,
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	CategoriesAnalysis []struct {
		Category string `json:"category"`
		Severity int    `json:"severity"`
	} `json:"categoriesAnalysis"`
}

// Check 调用文本分析接口并按阈值判定是否放行。
// 任何调用失败都按拦截处理（fail closed），类别为空表。
func (c *azureContentClient) Check(ctx context.Context, text string) Result {
	if cached, ok := c.lookupCache(ctx, text); ok {
		return cached
	}

	blocked := Result{Allowed: false, Categories: map[string]int{}}

	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		log.Errorf("序列化内容安全请求失败: %v", err)
		return blocked
	}

	url := fmt.Sprintf("%s/contentsafety/text:analyze?api-version=%s", c.cfg.Endpoint, c.cfg.AnalyzeAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Errorf("构造内容安全请求失败: %v", err)
		return blocked
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("内容安全服务调用失败: %v", err)
		return blocked
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("内容安全服务返回非预期状态码: %d", resp.StatusCode)
		return blocked
	}

	var analyzed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		log.Errorf("解析内容安全响应失败: %v", err)
		return blocked
	}

	// 四个类别全部初始化为 0，服务端缺报的类别按无风险处理。
	categories := map[string]int{"hate": 0, "self_harm": 0, "sexual": 0, "violence": 0}
	for _, item := range analyzed.CategoriesAnalysis {
		if name, ok := categoryNames[item.Category]; ok {
			categories[name] = item.Severity
		}
	}

	allowed := true
	for name, severity := range categories {
		if severity >= c.threshold(name) {
			allowed = false
			break
		}
	}

	result := Result{Allowed: allowed, Categories: categories}
	c.storeCache(ctx, text, result)
	return result
}

func (c *azureContentClient) threshold(category string) int {
	if t, ok := c.cfg.Thresholds[category]; ok {
		return t
	}
	return defaultSeverityThreshold
}

// cacheKey 以文本摘要作为缓存键，避免把原文写进 Redis。
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "moderation:" + hex.EncodeToString(sum[:])
}

func (c *azureContentClient) lookupCache(ctx context.Context, text string) (Result, bool) {
	if c.rdb == nil || c.cfg.CacheTTLMinutes <= 0 {
		return Result{}, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(text)).Result()
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Result{}, false
	}
	return result, true
}

// storeCache 只缓存成功返回的判定，失败路径必须每次重查。
func (c *azureContentClient) storeCache(ctx context.Context, text string, result Result) {
	if c.rdb == nil || c.cfg.CacheTTLMinutes <= 0 {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	ttl := time.Duration(c.cfg.CacheTTLMinutes) * time.Minute
	if err := c.rdb.Set(ctx, cacheKey(text), raw, ttl).Err(); err != nil {
		log.Warnf("写入内容安全缓存失败: %v", err)
	}
}
