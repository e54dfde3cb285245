package service

import (
	"context"
	"errors"
	"strings"

	"safechat-go/internal/config"
	"safechat-go/internal/model"
	"safechat-go/internal/repository"
	"safechat-go/internal/safety"
	"safechat-go/pkg/llm"
	"safechat-go/pkg/log"
	"safechat-go/pkg/moderation"

	"github.com/google/uuid"
)

// 聊天入参校验错误，handler 层据此返回 400。
var (
	ErrEmptyMessage = errors.New("message must not be empty")
	ErrInvalidAge   = errors.New("age must be between 1 and 120")
)

// 年龄下限：低于该年龄的用户直接拒绝服务。
const minServiceAge = 8

// 未声明年龄时按成人处理。
const defaultAge = 18

const ageGateResponse = "⚠️ This chatbot is not available for very young users."

const sanitizeNotice = "(Note: Response adjusted to maintain appropriate AI boundaries.)"

// ChatInput 是一次聊天请求的输入。
// DeclaredAge 来自请求体，ClaimAge 来自登录 token；token 声明优先。
type ChatInput struct {
	Message     string
	DeclaredAge *int
	ClaimAge    *int
	SessionID   string
}

// ChatService 接口定义了聊天管线的业务操作。
type ChatService interface {
	Process(ctx context.Context, input ChatInput) (*model.ChatEnvelope, error)
	History(sessionID string, limit int) []model.Interaction
	NewSessionID() string
}

type chatService struct {
	interactionRepo repository.InteractionRepository
	contentChecker  moderation.Checker
	jailbreak       moderation.JailbreakChecker
	llmClient       llm.Client
	escalation      EscalationService
}

// NewChatService 创建聊天管线服务。
func NewChatService(
	interactionRepo repository.InteractionRepository,
	contentChecker moderation.Checker,
	jailbreak moderation.JailbreakChecker,
	llmClient llm.Client,
	escalation EscalationService,
) ChatService {
	return &chatService{
		interactionRepo: interactionRepo,
		contentChecker:  contentChecker,
		jailbreak:       jailbreak,
		llmClient:       llmClient,
		escalation:      escalation,
	}
}

// Process 执行完整的安全聊天管线：
// 年龄解析 -> 内容安全检查 -> 越狱检测 -> 风险评估与升级 -> 模型调用 ->
// 输出净化 -> 素养提示注入。每个用户轮次与机器人轮次都会记入会话日志。
func (s *chatService) Process(ctx context.Context, input ChatInput) (*model.ChatEnvelope, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	// token 声明的年龄优先于请求体声明，两者都缺省时按成人处理。
	age := defaultAge
	if input.DeclaredAge != nil {
		age = *input.DeclaredAge
	}
	if input.ClaimAge != nil {
		age = *input.ClaimAge
	}
	if age < 1 || age > 120 {
		return nil, ErrInvalidAge
	}

	// 低龄直接拒绝，不建会话不记日志。
	if age < minServiceAge {
		return &model.ChatEnvelope{
			Response: ageGateResponse,
			AgeGate:  true,
		}, nil
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = s.NewSessionID()
	}
	band := safety.BandFor(age)

	result := s.contentChecker.Check(ctx, message)

	// 请求已取消时不再写入会话日志。
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 被拦截的轮次同样记录类别，保证风险评估能看到连续的越界尝试。
	s.interactionRepo.Record(sessionID, model.RoleUser, message, result.Categories)

	risk := s.assessAndEscalate(sessionID)

	allowed := result.Allowed && safety.SeverityAllowed(band, result.Categories)
	if !allowed {
		return &model.ChatEnvelope{
			Response:  safety.GetContentSafetyMessage(band, result.Categories),
			AgeBand:   band,
			SessionID: sessionID,
			ModerationExplain: &model.ModerationExplain{
				Reason:     "content_safety_block",
				Categories: result.Categories,
				AgeBand:    band,
			},
			Risk: &risk,
		}, nil
	}

	if !s.jailbreak.IsSafe(ctx, message) {
		return &model.ChatEnvelope{
			Response:  safety.GetJailbreakMessage(band),
			AgeBand:   band,
			SessionID: sessionID,
			ModerationExplain: &model.ModerationExplain{
				Reason:  "jailbreak_detected",
				AgeBand: band,
			},
			Risk: &risk,
		}, nil
	}

	reply := s.llmClient.Complete(ctx, safety.BuildSystemPrompt(band), s.buildLLMHistory(sessionID), message)

	cleansed, modified, explanation := safety.CleanseOutput(reply, band)
	if modified {
		cleansed = cleansed + "\n\n" + sanitizeNotice + "\n\n" + explanation
	}

	// 素养提示是注入层而非模型输出，不记入会话日志。
	s.interactionRepo.Record(sessionID, model.RoleBot, cleansed, nil)

	injected := false
	interval := config.Conf.Safety.Literacy.InjectionInterval
	userTurns := s.interactionRepo.CountUserTurns(sessionID)
	if safety.ShouldInjectLiteracy(userTurns, interval) {
		if snippet := safety.GetSnippet(userTurns / interval); snippet != "" {
			cleansed = cleansed + "\n\n" + safety.GetLiteracyIntro(band) + " " + snippet
			injected = true
		}
	}

	return &model.ChatEnvelope{
		Response:         cleansed,
		AgeBand:          band,
		SessionID:        sessionID,
		Risk:             &risk,
		LiteracyInjected: injected,
	}, nil
}

// assessAndEscalate 对当前会话窗口做风险评估，并按结果触发升级告警。
// 被拦截的轮次也会走到这里，保证高风险模式不会因拦截而漏报。
func (s *chatService) assessAndEscalate(sessionID string) model.RiskAssessment {
	window := config.Conf.Safety.History.RiskWindow
	if window <= 0 {
		window = 30
	}
	risk := safety.AssessRisk(s.interactionRepo.Recent(sessionID, window))

	for _, flag := range risk.Flags {
		if flag == safety.FlagSelfHarmInterest {
			s.escalation.Trigger(safety.FlagSelfHarmInterest, sessionID, risk)
			break
		}
	}
	if risk.RiskLevel == safety.RiskLevelHigh {
		s.escalation.Trigger("high_risk_pattern", sessionID, risk)
	}

	return risk
}

// buildLLMHistory 取最近的交互作为模型上下文。
// 当前用户轮次此时已入库，需要剔除末尾这一条，避免在消息列表里重复。
func (s *chatService) buildLLMHistory(sessionID string) []llm.Message {
	window := config.Conf.Safety.History.LLMWindow
	if window <= 0 {
		window = 10
	}

	recent := s.interactionRepo.Recent(sessionID, window)
	if n := len(recent); n > 0 && recent[n-1].Role == model.RoleUser {
		recent = recent[:n-1]
	}

	history := make([]llm.Message, 0, len(recent))
	for _, inter := range recent {
		role := "user"
		if inter.Role == model.RoleBot {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: inter.Content})
	}
	return history
}

// History 返回指定会话最近的交互，最旧在前。
func (s *chatService) History(sessionID string, limit int) []model.Interaction {
	return s.interactionRepo.Recent(sessionID, limit)
}

// NewSessionID 生成一个新的会话 ID。
func (s *chatService) NewSessionID() string {
	id := uuid.NewString()
	log.Debugf("创建新会话: %s", id)
	return id
}
