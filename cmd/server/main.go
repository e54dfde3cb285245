// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safechat-go/internal/config"
	"safechat-go/internal/handler"
	"safechat-go/internal/middleware"
	"safechat-go/internal/model"
	"safechat-go/internal/repository"
	"safechat-go/internal/service"
	"safechat-go/pkg/database"
	"safechat-go/pkg/es"
	"safechat-go/pkg/kafka"
	"safechat-go/pkg/llm"
	"safechat-go/pkg/log"
	"safechat-go/pkg/moderation"
	"safechat-go/pkg/storage"
	"safechat-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.User{}); err != nil {
		log.Fatal("数据库表迁移失败", err)
	}
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	// 4. 按需初始化告警下游：Kafka 投递、ES 审计索引、MinIO 证据归档
	var alertPublisher service.AlertPublisher
	if cfg.Kafka.Enabled {
		kafka.InitProducer(cfg.Kafka)
		alertPublisher = kafka.AlertSink{}
	}

	var alertIndex *es.AlertIndex
	if cfg.Elasticsearch.Enabled {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			// 审计索引不可用不阻塞核心聊天服务
			log.Errorf("es 初始化失败，告警审计检索不可用: %s", err)
		} else {
			alertIndex = es.NewAlertIndex(cfg.Elasticsearch.IndexName)
		}
	}

	var evidenceStore *storage.EvidenceStore
	if cfg.MinIO.Enabled {
		storage.InitMinIO(cfg.MinIO)
		evidenceStore = storage.NewEvidenceStore(cfg.MinIO.BucketName)
	}

	// 5. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	interactionRepo := repository.NewInteractionRepository(cfg.Safety.History.MaxInteractions)
	alertRepo := repository.NewAlertRepository()

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	contentChecker := moderation.NewContentChecker(cfg.Moderation, database.RDB)
	jailbreakChecker := moderation.NewJailbreakChecker(cfg.Moderation)
	llmClient := llm.NewClient(cfg.LLM)
	userService := service.NewUserService(userRepository, jwtManager)
	var indexer service.AlertIndexer
	if alertIndex != nil {
		indexer = alertIndex
	}
	var archiver service.EvidenceArchiver
	if evidenceStore != nil {
		archiver = evidenceStore
	}
	escalationService := service.NewEscalationService(alertRepo, interactionRepo, alertPublisher, indexer, archiver)
	chatService := service.NewChatService(interactionRepo, contentChecker, jailbreakChecker, llmClient, escalationService)

	// 7. 启动后台保留策略清理循环
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	service.NewRetentionService(interactionRepo).Start(rootCtx)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)
	userHandler := handler.NewUserHandler(userService)
	alertHandler := handler.NewAlertHandler(escalationService, alertIndex)
	systemHandler := handler.NewSystemHandler()

	apiV1 := r.Group("/api/v1")
	{
		// 公开路由
		apiV1.GET("/health", systemHandler.Health)
		apiV1.GET("/self_test", systemHandler.SelfTest)

		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)

			authed := auth.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", userHandler.Me)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		// Chat 路由组，需要认证
		chat := apiV1.Group("/chat")
		chat.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			chat.POST("", chatHandler.Chat)
			chat.GET("/history/:sessionId", chatHandler.History)
			chat.POST("/session/new", chatHandler.NewSession)
		}

		// 审核端路由组，需要管理员权限
		mod := apiV1.Group("/mod")
		mod.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			mod.GET("/alerts", alertHandler.List)
			mod.GET("/alerts/search", alertHandler.Search)
		}
	}

	// Chat 路由 (WebSocket)
	r.GET("/chat/:token", chatHandler.HandleWS)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("正在关闭服务...")

	cancelRoot()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("服务关闭异常: %v", err)
	}

	log.Info("服务已退出")
}
