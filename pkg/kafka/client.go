// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"

	"safechat-go/internal/config"
	"safechat-go/internal/model"
	"safechat-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// PublishAlert 发送一条升级告警到 Kafka，供下游审核系统消费。
// 以会话 ID 作为分区键，保证同一会话的告警有序。
func PublishAlert(ctx context.Context, alert model.Alert) error {
	alertBytes, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	return producer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(alert.SessionID),
			Value: alertBytes,
		},
	)
}

// AlertSink 将告警投递适配为升级服务可用的发布端。
type AlertSink struct{}

// Publish 实现 service.AlertPublisher。
func (AlertSink) Publish(ctx context.Context, alert model.Alert) error {
	return PublishAlert(ctx, alert)
}
