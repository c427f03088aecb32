package service

import (
	"Tubely/internal/model"
	"Tubely/pkg/logger"
	"Tubely/pkg/rabbitmq"
)

const (
	// 遵循：项目名.业务领域.实体/功能
	QueueCounterReconcile = "tubely.counter.reconcile.queue"
)

// ReconcileRequest 请求对某个目标的冗余计数做一次对账
type ReconcileRequest struct {
	Kind     model.TargetKind `json:"kind"`
	TargetID uint64           `json:"target_id,string"`
	Reason   string           `json:"reason"`
}

func (r ReconcileRequest) Ref() model.TargetRef {
	return model.TargetRef{Kind: r.Kind, ID: r.TargetID}
}

// ReconcileNotifier 发现计数可能不一致时，通知后台对账
// 通知失败只记日志，不影响主流程
type ReconcileNotifier interface {
	RequestReconcile(ref model.TargetRef, reason string)
}

type mqNotifier struct {
	pub *rabbitmq.Publisher
}

func NewMQNotifier(pub *rabbitmq.Publisher) ReconcileNotifier {
	return &mqNotifier{pub: pub}
}

func (n *mqNotifier) RequestReconcile(ref model.TargetRef, reason string) {
	msg := ReconcileRequest{Kind: ref.Kind, TargetID: ref.ID, Reason: reason}
	if err := n.pub.PublishJSON(QueueCounterReconcile, msg); err != nil {
		// 消息没发出去，只能靠定时全量对账兜底
		logger.Log.WithError(err).
			WithField("target", ref.String()).
			WithField("reason", reason).
			Error("【严重】对账请求投递失败！计数可能不一致，需等待定时对账")
	}
}

// LogNotifier RabbitMQ不可用时的退路，只记录日志
type LogNotifier struct{}

func (LogNotifier) RequestReconcile(ref model.TargetRef, reason string) {
	logger.Log.WithField("target", ref.String()).
		WithField("reason", reason).
		Warn("需要对账，但消息队列不可用")
}
