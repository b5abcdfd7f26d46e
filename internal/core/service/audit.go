package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/api/metrics"
	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
	"github.com/parcelmarket/shipping-marketplace/internal/core/ports"
)

// AuditEmitter accepts pricing audit events at stage boundaries. Emission is
// fire-and-forget: it never blocks a pricing function or affects its return
// value.
type AuditEmitter interface {
	Emit(event domain.AuditEvent)
}

// NopAuditEmitter drops every event. Used in tests.
type NopAuditEmitter struct{}

func (NopAuditEmitter) Emit(domain.AuditEvent) {}

// auditService persists audit events and updates the pipeline metrics. It
// sits behind the async dispatcher, so persistence latency never reaches the
// request path.
type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditSink implementation backed by repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditSink {
	return &auditService{repo: repo, log: log}
}

// Process persists one audit event. Persistence failures are logged and
// counted, never propagated to the emitting stage.
func (s *auditService) Process(ctx context.Context, event domain.AuditEvent) error {
	metrics.AuditEventsTotal.WithLabelValues(string(event.Stage)).Inc()

	if err := s.repo.Insert(ctx, &event); err != nil {
		s.log.Warn().Err(err).
			Str("reference", event.Reference).
			Str("stage", string(event.Stage)).
			Msg("failed to persist audit event")
		return err
	}
	return nil
}
