package main

import (
	"context"
	"encoding/json"

	"Tubely/internal/service"
	"Tubely/pkg/logger"
)

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeDrop
)

// handleDelivery 处理一条对账消息并决定如何确认：坏消息丢弃，数据库错误重新入队
func handleDelivery(ctx context.Context, reconciler service.ReconcileService, body []byte) outcome {
	logCtx := logger.Log.WithField("body", string(body))

	var msg service.ReconcileRequest
	if err := json.Unmarshal(body, &msg); err != nil {
		logCtx.WithError(err).Error("消息JSON解析失败")
		return outcomeDrop
	}
	ref := msg.Ref()
	if !ref.Kind.Valid() || ref.ID == 0 {
		logCtx.Warn("对账消息里的目标无效")
		return outcomeDrop
	}

	logCtx = logCtx.WithField("target", ref.String()).WithField("reason", msg.Reason)
	drifted, err := reconciler.ReconcileTarget(ctx, ref)
	if err != nil {
		logCtx.WithError(err).Error("对账失败，将进行重试")
		return outcomeRequeue
	}
	logCtx.WithField("drifted", drifted).Info("对账完成")
	return outcomeAck
}
