package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/repository"
)

// Message templates understood by the delivery sink.
const (
	TemplateGrievanceReceived = "grievance_received"
	TemplateDepartmentNotice  = "department_new_grievance"
	TemplateOfficerAssigned   = "officer_assigned"
	TemplateStatusUpdate      = "status_update"
	TemplateSLABreach         = "sla_breach_alert"
)

// Receipt acknowledges a message handed to the sink.
type Receipt struct {
	MessageID string
	Template  string
	Recipient string
}

// MessageSink delivers a templated message to a phone number. Delivery
// channels live outside this service.
type MessageSink interface {
	Send(ctx context.Context, phone, template string, params map[string]string) (Receipt, error)
}

// LogSink records messages in the log instead of delivering them.
type LogSink struct {
	Logger   *zap.Logger
	SenderID string
}

// Send implements MessageSink.
func (s LogSink) Send(_ context.Context, phone, template string, params map[string]string) (Receipt, error) {
	receipt := Receipt{MessageID: uuid.NewString(), Template: template, Recipient: phone}
	if s.Logger != nil {
		s.Logger.Info("message queued",
			zap.String("sender", s.SenderID),
			zap.String("recipient", phone),
			zap.String("template", template),
			zap.Any("params", params),
			zap.String("message_id", receipt.MessageID))
	}
	return receipt, nil
}

// NotificationService turns committed lifecycle events into messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	store      repository.Store
	sink       MessageSink
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, store repository.Store, sink MessageSink, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		store:      store,
		sink:       sink,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.sink == nil || !n.cfg.Enabled {
		return
	}
	n.dispatcher.Subscribe(events.EventGrievanceCreated, n.handleGrievanceCreated)
	n.dispatcher.Subscribe(events.EventGrievanceRouted, n.handleGrievanceRouted)
	n.dispatcher.Subscribe(events.EventGrievanceStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventOfficerAssigned, n.handleOfficerAssigned)
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleSLABreached)
}

func (n *NotificationService) handleGrievanceCreated(ctx context.Context, event events.Event) error {
	phone, err := n.citizenPhone(ctx, event.Actor.ID)
	if err != nil {
		return err
	}
	return n.send(ctx, phone, TemplateGrievanceReceived, map[string]string{"ticket_id": event.TicketID})
}

func (n *NotificationService) handleGrievanceRouted(ctx context.Context, event events.Event) error {
	payload := ledgerPayload(event)
	deptID := payload["department_id"]
	dept, err := n.store.Repos().Departments.GetByID(ctx, deptID)
	if err != nil {
		return fmt.Errorf("load department %s: %w", deptID, err)
	}
	if dept.ContactWhatsApp == "" {
		n.logger.Debug("department has no whatsapp contact", zap.String("department_id", dept.ID))
		return nil
	}
	return n.send(ctx, dept.ContactWhatsApp, TemplateDepartmentNotice, map[string]string{
		"ticket_id":  event.TicketID,
		"department": dept.Name,
		"priority":   payload["priority"],
	})
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	g, err := n.store.Repos().Grievances.GetByID(ctx, event.GrievanceID)
	if err != nil {
		return fmt.Errorf("load grievance %s: %w", event.GrievanceID, err)
	}
	phone, err := n.citizenPhone(ctx, &g.CitizenID)
	if err != nil {
		return err
	}
	payload := ledgerPayload(event)
	return n.send(ctx, phone, TemplateStatusUpdate, map[string]string{
		"ticket_id": event.TicketID,
		"status":    payload["to_status"],
		"notes":     payload["notes"],
	})
}

func (n *NotificationService) handleOfficerAssigned(ctx context.Context, event events.Event) error {
	payload := ledgerPayload(event)
	officer, err := n.store.Repos().Officers.GetByID(ctx, payload["officer_id"])
	if err != nil {
		return fmt.Errorf("load officer %s: %w", payload["officer_id"], err)
	}
	if officer.WhatsApp == "" {
		return nil
	}
	return n.send(ctx, officer.WhatsApp, TemplateOfficerAssigned, map[string]string{
		"ticket_id": event.TicketID,
		"officer":   officer.Name,
	})
}

func (n *NotificationService) handleSLABreached(ctx context.Context, event events.Event) error {
	if n.cfg.AdminWhatsApp == "" {
		return nil
	}
	payload, ok := event.Payload.(events.SLABreachedPayload)
	if !ok {
		return fmt.Errorf("unexpected sla payload %T", event.Payload)
	}
	return n.send(ctx, n.cfg.AdminWhatsApp, TemplateSLABreach, map[string]string{
		"ticket_id":     event.TicketID,
		"severity":      string(payload.Severity),
		"status":        string(payload.Status),
		"hours_pending": fmt.Sprintf("%.1f", payload.HoursPending),
	})
}

func (n *NotificationService) citizenPhone(ctx context.Context, citizenID *string) (string, error) {
	if citizenID == nil {
		return "", errors.New("event has no citizen")
	}
	citizen, err := n.store.Repos().Citizens.GetByID(ctx, *citizenID)
	if err != nil {
		return "", fmt.Errorf("load citizen %s: %w", *citizenID, err)
	}
	return citizen.Phone, nil
}

func (n *NotificationService) send(ctx context.Context, phone, template string, params map[string]string) error {
	if strings.TrimSpace(phone) == "" {
		return nil
	}
	receipt, err := n.sink.Send(ctx, phone, template, params)
	if err != nil {
		return fmt.Errorf("send %s: %w", template, err)
	}
	n.logger.Debug("notification sent", zap.String("template", template), zap.String("message_id", receipt.MessageID))
	return nil
}

// ledgerPayload flattens a ledger payload to strings for templating.
func ledgerPayload(event events.Event) map[string]string {
	out := map[string]string{}
	raw, ok := event.Payload.(map[string]any)
	if !ok {
		return out
	}
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out
}
