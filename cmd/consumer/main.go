package main

import (
	"context"
	"os/signal"
	"syscall"

	"Tubely/internal/bootstrap"
	"Tubely/internal/config"
	"Tubely/internal/service"
	"Tubely/pkg/logger"
	"Tubely/pkg/rabbitmq"
	"Tubely/pkg/snowflake"

	"github.com/streadway/amqp"
)

// 对账进程：1、消费对账队列，逐个目标重算计数 2、按RECONCILE_INTERVAL定时全量对账，兜底丢失的消息
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("配置加载失败: %v", err)
	}
	logger.InitLogger(cfg.LogLevel, cfg.LogFile)
	// 和server用不同的节点号
	if err := snowflake.SetWorker(cfg.WorkerID + 1); err != nil {
		logger.Log.Fatalf("雪花ID节点初始化失败: %v", err)
	}

	// 连接数据库
	db, err := bootstrap.OpenMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到数据库: %v", err)
	}
	// 连接RabbitMQ
	conn, err := rabbitmq.InitRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到RabbitMQ: %v", err)
	}
	defer conn.Close()
	if err := rabbitmq.DeclareQueue(conn, service.QueueCounterReconcile); err != nil {
		logger.Log.Fatalf("声明对账队列失败: %v", err)
	}

	// 对账不走缓存，rdb传nil；修正后的视频缓存靠过期时间失效
	svcs := bootstrap.NewServices(cfg, db, nil, service.LogNotifier{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go svcs.Reconcile.RunPeriodic(ctx, cfg.ReconcileInterval)
	if err := consumeReconcile(ctx, conn, svcs.Reconcile); err != nil {
		logger.Log.Fatalf("对账消费者退出: %v", err)
	}
	logger.Log.Info("对账进程已退出")
}

// 对账队列消费者：1、通过mq的TCP连接创建channel 2、限制未确认消息数 3、循环消费直到ctx结束或channel被关闭
func consumeReconcile(ctx context.Context, conn *amqp.Connection, reconciler service.ReconcileService) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	if err := ch.Qos(16, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		service.QueueCounterReconcile, // queue
		"",                            // consumer
		false,                         // auto-ack: 处理完再手动确认
		false,                         // exclusive
		false,                         // no-local
		false,                         // no-wait
		nil,                           // args
	)
	if err != nil {
		return err
	}
	logger.Log.Info(" [*] 等待对账消息中. 按 CTRL+C 退出")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			// msgs不是切片，而是通道channel，被关闭说明连接断了
			if !ok {
				return amqp.ErrClosed
			}
			switch handleDelivery(ctx, reconciler, d.Body) {
			case outcomeAck:
				_ = d.Ack(false)
			case outcomeRequeue:
				_ = d.Nack(false, true)
			case outcomeDrop:
				// 对于无法解析的“坏消息”，通知mq处理失败，并直接删除
				_ = d.Nack(false, false)
			}
		}
	}
}
