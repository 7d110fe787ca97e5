package notifier

import (
	"context"
	"fmt"

	profileRepo "workerlly/database/repository/profile"
	"workerlly/models"
	"workerlly/utils"

	"go.uber.org/zap"
)

// ChannelSender is the WebSocket side of delivery. Satisfied by the
// connection registry.
type ChannelSender interface {
	SendPersonal(userID string, msg models.SocketMessage) bool
}

// ReportSink receives the delivery report of every fan-out. Persistence
// happens off the hot path.
type ReportSink interface {
	Record(ctx context.Context, report *models.DeliveryReport)
}

// Hub is the single typed entry point for outbound events: it resolves
// recipients from the static event table, delivers per the event's
// strategy, and always produces a delivery report.
type Hub struct {
	ws        ChannelSender
	push      PushSender
	resolvers map[string]Resolver
	reports   ReportSink
}

// NewHub wires the hub. Resolvers are fixed at construction, one per
// resolver kind in the event table.
func NewHub(ws ChannelSender, push PushSender, profiles profileRepo.ProfileRepository, reports ReportSink) *Hub {
	return &Hub{
		ws:   ws,
		push: push,
		resolvers: map[string]Resolver{
			ResolveSeekers:  &seekersResolver{profiles: profiles},
			ResolveJobOwner: &jobOwnerResolver{},
			ResolveSpecific: &specificResolver{},
		},
		reports: reports,
	}
}

// Notify fans one event out. Per-recipient failures are isolated; the
// returned error covers only resolution, never delivery.
func (h *Hub) Notify(ctx context.Context, eventType string, data map[string]interface{}, rc RecipientContext) error {
	ev, err := LookupEvent(eventType)
	if err != nil {
		return err
	}
	resolver, ok := h.resolvers[ev.Resolver]
	if !ok {
		return fmt.Errorf("no resolver registered for kind %q", ev.Resolver)
	}
	recipients, err := resolver.Resolve(ctx, rc)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients for %s: %w", eventType, err)
	}

	wsMsg := models.SocketMessage{Type: ev.Type, Data: data}
	title := renderTemplate(ev.Title, data)
	body := renderTemplate(ev.Body, data)
	fcmData := stringifyData(ev, data)

	report := &models.DeliveryReport{EventType: ev.Type}
	for _, userID := range recipients {
		wsOK, pushOK := h.deliverOne(ctx, ev, userID, wsMsg, title, body, fcmData)
		if wsOK {
			report.WSRecipients = append(report.WSRecipients, userID)
		}
		if pushOK {
			report.PushRecipients = append(report.PushRecipients, userID)
		}
		if !wsOK && !pushOK {
			report.FailedRecipients = append(report.FailedRecipients, userID)
		}
	}

	if len(recipients) > 0 {
		report.SuccessRate = float64(len(recipients)-len(report.FailedRecipients)) / float64(len(recipients))
	} else {
		// Empty audience is a normal outcome, not a delivery failure.
		report.SuccessRate = 1
	}
	h.reports.Record(ctx, report)

	utils.GetLogger().Debug("event fanned out",
		zap.String("event_type", ev.Type),
		zap.Int("recipients", len(recipients)),
		zap.Int("failed", len(report.FailedRecipients)))
	return nil
}

// deliverOne applies the event's strategy to a single recipient.
func (h *Hub) deliverOne(ctx context.Context, ev Event, userID string, wsMsg models.SocketMessage, title, body string, fcmData map[string]string) (wsOK, pushOK bool) {
	switch ev.Strategy {
	case StrategyWebsocketOnly:
		wsOK = h.ws.SendPersonal(userID, wsMsg)
	case StrategyWSFirstFCMFallback:
		wsOK = h.ws.SendPersonal(userID, wsMsg)
		if !wsOK {
			pushOK = h.tryPush(ctx, ev, userID, title, body, fcmData)
		}
	case StrategyBoth:
		wsOK = h.ws.SendPersonal(userID, wsMsg)
		pushOK = h.tryPush(ctx, ev, userID, title, body, fcmData)
	case StrategyFCMOnly:
		pushOK = h.tryPush(ctx, ev, userID, title, body, fcmData)
	}
	return wsOK, pushOK
}

func (h *Hub) tryPush(ctx context.Context, ev Event, userID, title, body string, data map[string]string) bool {
	if h.push == nil {
		return false
	}
	ok, err := h.push.Push(ctx, userID, ev.AppType, title, body, data)
	if err != nil {
		utils.GetLogger().Debug("push delivery failed",
			zap.String("event_type", ev.Type),
			zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return ok
}

// stringifyData builds the FCM data payload: every event value
// stringified, plus the route and notification type the apps use to
// deep-link.
func stringifyData(ev Event, data map[string]interface{}) map[string]string {
	out := make(map[string]string, len(data)+2)
	for key, value := range data {
		out[key] = fmt.Sprintf("%v", value)
	}
	out["route"] = ev.Route
	out["notification_type"] = ev.Type
	return out
}
