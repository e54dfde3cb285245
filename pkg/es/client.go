// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"safechat-go/internal/config"
	"safechat-go/internal/model"
	"safechat-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// detail 是自由结构的告警上下文，只存储不参与检索。
	mapping := `{
		"mappings": {
			"properties": {
				"timestamp":  { "type": "date" },
				"kind":       { "type": "keyword" },
				"session_id": { "type": "keyword" },
				"detail":     { "type": "object", "enabled": false }
			}
		}
	}`

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// AlertIndex 是升级告警的审计索引。
type AlertIndex struct {
	indexName string
}

// NewAlertIndex 创建告警审计索引的访问器。
func NewAlertIndex(indexName string) *AlertIndex {
	return &AlertIndex{indexName: indexName}
}

// Index 将一条告警写入审计索引。
func (a *AlertIndex) Index(ctx context.Context, alert model.Alert) error {
	alertBytes, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      a.indexName,
		DocumentID: fmt.Sprintf("%s-%d", alert.SessionID, alert.Timestamp.UnixNano()),
		Body:       bytes.NewReader(alertBytes),
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引告警到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index alert")
	}
	return nil
}

// Search 按关键词检索告警，命中 kind 或 session_id，按时间倒序返回。
func (a *AlertIndex) Search(ctx context.Context, query string, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	searchBody := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"kind", "session_id"},
			},
		},
		"sort": []map[string]interface{}{
			{"timestamp": map[string]interface{}{"order": "desc"}},
		},
	}
	bodyBytes, err := json.Marshal(searchBody)
	if err != nil {
		return nil, err
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(a.indexName),
		ESClient.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("检索告警时 Elasticsearch 返回错误: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source model.Alert `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	alerts := make([]model.Alert, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		alerts = append(alerts, hit.Source)
	}
	return alerts, nil
}
