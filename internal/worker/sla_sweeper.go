package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/service"
)

// SLASweeper periodically looks for breached grievances and publishes one
// alert per grievance and stage (breached, escalated) within the alert TTL.
type SLASweeper struct {
	sla        *service.SLAService
	dispatcher events.Dispatcher
	guard      AlertGuard
	ttl        time.Duration
	logger     *zap.Logger
	cron       *cron.Cron
	baseCtx    context.Context
}

// NewSLASweeper wires the sweeper. A nil guard keeps claims in process.
func NewSLASweeper(baseCtx context.Context, sla *service.SLAService, dispatcher events.Dispatcher, guard AlertGuard, ttl time.Duration, logger *zap.Logger) *SLASweeper {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if guard == nil {
		guard = NewMemoryAlertGuard(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLASweeper{
		sla:        sla,
		dispatcher: dispatcher,
		guard:      guard,
		ttl:        ttl,
		logger:     logger,
		cron:       cron.New(),
		baseCtx:    baseCtx,
	}
}

// Start schedules the sweep. spec uses the standard cron syntax including
// descriptors such as "@every 5m".
func (s *SLASweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Sweep(s.baseCtx); err != nil {
			s.logger.Error("sla sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule sla sweep %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("sla sweeper started", zap.String("schedule", spec))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *SLASweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sla sweeper stopped")
}

// Sweep publishes alerts for newly breached grievances and returns how many
// were sent.
func (s *SLASweeper) Sweep(ctx context.Context) (int, error) {
	breached, err := s.sla.ListBreached(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, st := range breached {
		stage := "breached"
		if st.Escalated {
			stage = "escalated"
		}
		fresh, err := s.guard.Claim(ctx, st.GrievanceID+":"+stage, s.ttl)
		if err != nil {
			return sent, err
		}
		if !fresh {
			continue
		}
		if s.dispatcher != nil {
			_ = s.dispatcher.Publish(ctx, events.Event{
				Type:        events.EventSLABreached,
				GrievanceID: st.GrievanceID,
				TicketID:    st.TicketID,
				Actor:       events.Actor{Type: domain.ActorSystem},
				Timestamp:   time.Now().UTC(),
				Payload: events.SLABreachedPayload{
					Severity:     st.Severity,
					Status:       st.Status,
					DepartmentID: st.DepartmentID,
					HoursPending: st.HoursPending,
					TargetHours:  st.Rule.ResponseTarget.Hours(),
					Escalated:    st.Escalated,
				},
			})
		}
		sent++
	}
	if sent > 0 {
		s.logger.Info("sla alerts published", zap.Int("count", sent), zap.Int("breached", len(breached)))
	}
	return sent, nil
}
