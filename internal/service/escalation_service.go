package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"safechat-go/internal/model"
	"safechat-go/internal/repository"
	"safechat-go/pkg/log"
)

// AlertPublisher 将告警投递到消息队列，供下游审核系统消费。
type AlertPublisher interface {
	Publish(ctx context.Context, alert model.Alert) error
}

// AlertIndexer 将告警写入审计索引，供人工检索。
type AlertIndexer interface {
	Index(ctx context.Context, alert model.Alert) error
}

// EvidenceArchiver 将升级证据包归档到对象存储。
type EvidenceArchiver interface {
	Archive(ctx context.Context, objectName string, payload []byte) error
}

// EscalationService 接口定义了风险升级告警的业务操作。
type EscalationService interface {
	// Trigger 记录一条升级告警并异步投递到各下游。记录本身同步完成。
	Trigger(kind, sessionID string, risk model.RiskAssessment)
	// ListRecent 返回最近的告警，最旧在前。
	ListRecent(limit int) []model.Alert
}

// evidenceBundle 是归档到对象存储的证据包结构。
type evidenceBundle struct {
	Alert        model.Alert         `json:"alert"`
	Interactions []model.Interaction `json:"interactions"`
}

type escalationService struct {
	alertRepo       repository.AlertRepository
	interactionRepo repository.InteractionRepository
	publisher       AlertPublisher
	indexer         AlertIndexer
	archiver        EvidenceArchiver
}

// NewEscalationService 创建升级告警服务。
// publisher/indexer/archiver 任意一项可为 nil，表示对应下游未启用。
func NewEscalationService(
	alertRepo repository.AlertRepository,
	interactionRepo repository.InteractionRepository,
	publisher AlertPublisher,
	indexer AlertIndexer,
	archiver EvidenceArchiver,
) EscalationService {
	return &escalationService{
		alertRepo:       alertRepo,
		interactionRepo: interactionRepo,
		publisher:       publisher,
		indexer:         indexer,
		archiver:        archiver,
	}
}

// Trigger 记录告警并异步分发。
// 下游失败只记日志，绝不影响聊天主流程。
func (s *escalationService) Trigger(kind, sessionID string, risk model.RiskAssessment) {
	alert := model.Alert{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		SessionID: sessionID,
		Detail: map[string]interface{}{
			"risk": risk,
		},
	}

	s.alertRepo.Append(alert)
	log.Warnw("触发风险升级告警",
		"kind", kind,
		"sessionId", sessionID,
		"riskScore", risk.RiskScore,
		"riskLevel", risk.RiskLevel,
	)

	go s.fanOut(alert)
}

// fanOut 向启用的下游逐个投递，彼此独立，best-effort。
func (s *escalationService) fanOut(alert model.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, alert); err != nil {
			log.Errorf("投递告警到消息队列失败: sessionId=%s, error=%v", alert.SessionID, err)
		}
	}

	if s.indexer != nil {
		if err := s.indexer.Index(ctx, alert); err != nil {
			log.Errorf("写入告警审计索引失败: sessionId=%s, error=%v", alert.SessionID, err)
		}
	}

	if s.archiver != nil {
		bundle := evidenceBundle{
			Alert:        alert,
			Interactions: s.interactionRepo.Recent(alert.SessionID, 30),
		}
		payload, err := json.Marshal(bundle)
		if err != nil {
			log.Errorf("序列化升级证据包失败: sessionId=%s, error=%v", alert.SessionID, err)
			return
		}
		objectName := fmt.Sprintf("escalations/%s/%d-%s.json", alert.SessionID, alert.Timestamp.UnixNano(), alert.Kind)
		if err := s.archiver.Archive(ctx, objectName, payload); err != nil {
			log.Errorf("归档升级证据包失败: sessionId=%s, error=%v", alert.SessionID, err)
		}
	}
}

// ListRecent 返回最近的告警。
func (s *escalationService) ListRecent(limit int) []model.Alert {
	return s.alertRepo.ListRecent(limit)
}
