// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"safechat-go/internal/service"
	"safechat-go/pkg/log"
	"safechat-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理聊天相关的 API 请求与 WebSocket 连接。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// ChatRequest 定义了聊天 API 的请求体结构。
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	Age       *int   `json:"age" binding:"omitempty,gte=1,lte=120"`
	SessionID string `json:"session_id"`
}

// Chat 处理一轮聊天请求，执行完整的安全管线后返回回复信封。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：" + err.Error()})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader("X-Session-Id")
	}

	input := service.ChatInput{
		Message:     req.Message,
		DeclaredAge: req.Age,
		SessionID:   sessionID,
	}
	// 登录用户的 token 年龄声明优先于请求体声明。
	if v, exists := c.Get("claims"); exists {
		if claims, ok := v.(*token.CustomClaims); ok {
			input.ClaimAge = claims.Age
		}
	}

	envelope, err := h.chatService.Process(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) || errors.Is(err, service.ErrInvalidAge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Errorf("处理聊天请求失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务暂时不可用，请稍后重试"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    envelope,
	})
}

// History 返回指定会话最近的交互记录。
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Param("sessionId")
	messages := h.chatService.History(sessionID, 50)

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"session_id":  sessionID,
			"messages":    messages,
			"total_count": len(messages),
		},
	})
}

// NewSession 分配一个新的会话 ID。
func (h *ChatHandler) NewSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data": gin.H{
			"session_id": h.chatService.NewSessionID(),
			"created":    true,
		},
	})
}

// HandleWS 处理一个传入的 WebSocket 聊天连接。
// 每条入站消息走与 HTTP 接口相同的安全管线，整包返回回复信封。
func (h *ChatHandler) HandleWS(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	if _, err := h.userService.GetProfile(claims.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		envelope, err := h.chatService.Process(c.Request.Context(), service.ChatInput{
			Message:     req.Message,
			DeclaredAge: req.Age,
			ClaimAge:    claims.Age,
			SessionID:   req.SessionID,
		})
		if err != nil {
			if werr := conn.WriteJSON(gin.H{"error": err.Error()}); werr != nil {
				log.Warnf("向 WebSocket 写入错误消息失败: %v", werr)
				break
			}
			continue
		}

		if err := conn.WriteJSON(envelope); err != nil {
			log.Warnf("向 WebSocket 写入回复失败: %v", err)
			break
		}
	}
}
