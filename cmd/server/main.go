package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"Tubely/internal/bootstrap"
	"Tubely/internal/config"
	"Tubely/internal/model"
	"Tubely/internal/router"
	"Tubely/internal/service"
	"Tubely/pkg/logger"
	"Tubely/pkg/rabbitmq"
	"Tubely/pkg/redis"
	"Tubely/pkg/snowflake"

	"github.com/gin-gonic/gin"
)

func main() {
	// 读取配置：.env、config.yml、环境变量
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("配置加载失败: %v", err)
	}
	// 初始化logger
	logger.InitLogger(cfg.LogLevel, cfg.LogFile)
	gin.SetMode(gin.ReleaseMode)

	if err := snowflake.SetWorker(cfg.WorkerID); err != nil {
		logger.Log.Fatalf("雪花ID节点初始化失败: %v", err)
	}

	db, err := bootstrap.OpenMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Log.Fatalf("无法连接到数据库: %v", err)
	}
	logger.Log.Info("数据库连接成功")
	// 没有这个表就创建,没有属性列则创建列,没有约束则增加约束;不会主动删除和修改
	if err := model.AutoMigrate(db); err != nil {
		logger.Log.Fatalf("数据库迁移失败: %v", err)
	}
	logger.Log.Info("数据库迁移成功")

	// 初始化Redis
	redisClient, err := redis.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Log.Fatalf("无法连接到Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Log.Info("Redis连接成功")

	// RabbitMQ只用来投递对账请求，连不上时退化成只记日志，靠consumer的定时对账兜底
	var notifier service.ReconcileNotifier = service.LogNotifier{}
	if conn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL); err != nil {
		logger.Log.WithError(err).Warn("无法连接到RabbitMQ，对账请求只记录日志")
	} else {
		defer conn.Close() // 确保程序退出时关闭连接
		if err := rabbitmq.DeclareQueue(conn, service.QueueCounterReconcile); err != nil {
			logger.Log.Fatalf("声明对账队列失败: %v", err)
		}
		notifier = service.NewMQNotifier(rabbitmq.NewPublisher(conn))
		logger.Log.Info("RabbitMQ连接成功")
	}

	svcs := bootstrap.NewServices(cfg, db, redisClient, notifier)
	r, err := router.SetupRouter(svcs.Handlers(), router.Options{JWTSecret: cfg.JWTSecret, CORSOrigins: cfg.CORSOrigins})
	if err != nil {
		logger.Log.Fatalf("路由初始化失败: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.WithField("addr", cfg.ServerAddr).Info("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("收到退出信号，开始优雅关闭")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("服务器关闭超时")
	}
	logger.Log.Info("服务器已退出")
}
