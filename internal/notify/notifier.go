// Package notify ships the default workflow.Notifier implementation.
// Real delivery (email, push) is wired by the deployment; this one just
// records the events.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/0xfishbone/approval-flow/internal/models"
)

// LogNotifier logs workflow events through zap.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs events.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// StepAdvanced logs that a request is waiting on a new role.
func (n *LogNotifier) StepAdvanced(_ context.Context, requestID string, role models.Role) {
	n.logger.Info("notification: awaiting approval",
		zap.String("request_id", requestID),
		zap.String("role", role.String()))
}

// Resolved logs that a request reached a final status.
func (n *LogNotifier) Resolved(_ context.Context, requestID string, status models.RequestStatus) {
	n.logger.Info("notification: request resolved",
		zap.String("request_id", requestID),
		zap.String("status", string(status)))
}
