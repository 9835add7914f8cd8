package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
)

// AuditService writes authentication and account events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.AuditConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.AuditConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil || !a.cfg.Enabled {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *event.UserID))
	}

	switch payload := event.Payload.(type) {
	case events.AuthFailurePayload:
		fields = append(fields, zap.String("code", payload.Code), zap.String("reason", payload.Reason))
		a.logger.Warn("audit", fields...)
		return nil
	case events.UserChangedPayload:
		fields = append(fields, zap.Strings("fields", payload.Fields))
	}
	a.logger.Info("audit", fields...)
	return nil
}
