package notifier

import (
	"context"
	"errors"
	"testing"

	profileRepo "workerlly/database/repository/profile"
	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeWS struct {
	connected map[string]bool
	sent      []string // user ids, in delivery order
}

func (f *fakeWS) SendPersonal(userID string, _ models.SocketMessage) bool {
	if !f.connected[userID] {
		return false
	}
	f.sent = append(f.sent, userID)
	return true
}

type fakePush struct {
	ok     bool
	err    error
	pushes []string // user ids
	titles []string
}

func (f *fakePush) Push(_ context.Context, userID, _, title, _ string, _ map[string]string) (bool, error) {
	f.pushes = append(f.pushes, userID)
	f.titles = append(f.titles, title)
	return f.ok, f.err
}

type fakeSink struct {
	reports []*models.DeliveryReport
}

func (f *fakeSink) Record(_ context.Context, report *models.DeliveryReport) {
	f.reports = append(f.reports, report)
}

// stubProfiles backs the seekers resolver. Only FindSeekerIDs is used by
// the hub; the embedded interface panics on anything else.
type stubProfiles struct {
	profileRepo.ProfileRepository
	seekerIDs []primitive.ObjectID
	err       error
}

func (s *stubProfiles) FindSeekerIDs(context.Context, primitive.ObjectID, primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.seekerIDs, s.err
}

func TestNotifyWSFirstFallsBackToPush(t *testing.T) {
	ws := &fakeWS{connected: map[string]bool{}}
	push := &fakePush{ok: true}
	sink := &fakeSink{}
	hub := NewHub(ws, push, nil, sink)

	err := hub.Notify(context.Background(), EventBidAccepted,
		map[string]interface{}{"task_id": "78S-0001"},
		RecipientContext{UserID: "seeker-1"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(push.pushes) != 1 || push.pushes[0] != "seeker-1" {
		t.Errorf("push recipients = %v, want [seeker-1]", push.pushes)
	}
	report := sink.reports[0]
	if len(report.WSRecipients) != 0 {
		t.Errorf("WSRecipients = %v, want empty", report.WSRecipients)
	}
	if len(report.PushRecipients) != 1 {
		t.Errorf("PushRecipients = %v, want one entry", report.PushRecipients)
	}
	if report.SuccessRate != 1 {
		t.Errorf("SuccessRate = %v, want 1", report.SuccessRate)
	}
}

func TestNotifyWSFirstSkipsPushWhenConnected(t *testing.T) {
	ws := &fakeWS{connected: map[string]bool{"seeker-1": true}}
	push := &fakePush{ok: true}
	sink := &fakeSink{}
	hub := NewHub(ws, push, nil, sink)

	if err := hub.Notify(context.Background(), EventBidAccepted, nil,
		RecipientContext{UserID: "seeker-1"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(push.pushes) != 0 {
		t.Errorf("push attempted for a connected recipient: %v", push.pushes)
	}
}

func TestNotifyBothStrategy(t *testing.T) {
	seekerA := primitive.NewObjectID()
	seekerB := primitive.NewObjectID()
	ws := &fakeWS{connected: map[string]bool{seekerA.Hex(): true}}
	push := &fakePush{ok: true}
	sink := &fakeSink{}
	profiles := &stubProfiles{seekerIDs: []primitive.ObjectID{seekerA, seekerB}}
	hub := NewHub(ws, push, profiles, sink)

	err := hub.Notify(context.Background(), EventNewJob,
		map[string]interface{}{"sub_category": "Plumbing", "location": "Andheri"},
		RecipientContext{
			CategoryID: primitive.NewObjectID().Hex(),
			CityID:     primitive.NewObjectID().Hex(),
		})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	// Both channels fire for every recipient regardless of WS delivery.
	if len(push.pushes) != 2 {
		t.Errorf("pushes = %v, want both seekers", push.pushes)
	}
	if len(ws.sent) != 1 {
		t.Errorf("ws deliveries = %v, want only the connected seeker", ws.sent)
	}
	if want := "New Job Available"; push.titles[0] != want {
		t.Errorf("title = %q, want %q", push.titles[0], want)
	}
	report := sink.reports[0]
	if len(report.FailedRecipients) != 0 {
		t.Errorf("FailedRecipients = %v, want empty", report.FailedRecipients)
	}
}

func TestNotifyRecordsFailures(t *testing.T) {
	ws := &fakeWS{connected: map[string]bool{}}
	push := &fakePush{err: errors.New("fcm unavailable")}
	sink := &fakeSink{}
	hub := NewHub(ws, push, nil, sink)

	if err := hub.Notify(context.Background(), EventNewBid,
		map[string]interface{}{"seeker_name": "Ravi", "amount": 380},
		RecipientContext{JobOwnerID: "provider-1"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	report := sink.reports[0]
	if len(report.FailedRecipients) != 1 || report.FailedRecipients[0] != "provider-1" {
		t.Errorf("FailedRecipients = %v, want [provider-1]", report.FailedRecipients)
	}
	if report.SuccessRate != 0 {
		t.Errorf("SuccessRate = %v, want 0", report.SuccessRate)
	}
}

func TestNotifyEmptyAudience(t *testing.T) {
	ws := &fakeWS{connected: map[string]bool{}}
	sink := &fakeSink{}
	profiles := &stubProfiles{}
	hub := NewHub(ws, &fakePush{}, profiles, sink)

	err := hub.Notify(context.Background(), EventNewJob, nil, RecipientContext{
		CategoryID: primitive.NewObjectID().Hex(),
		CityID:     primitive.NewObjectID().Hex(),
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got := sink.reports[0].SuccessRate; got != 1 {
		t.Errorf("SuccessRate for empty audience = %v, want 1", got)
	}
}

func TestNotifyUnknownEvent(t *testing.T) {
	hub := NewHub(&fakeWS{}, &fakePush{}, nil, &fakeSink{})
	if err := hub.Notify(context.Background(), "made_up_event", nil, RecipientContext{}); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestEventTableResolversRegistered(t *testing.T) {
	hub := NewHub(&fakeWS{}, &fakePush{}, &stubProfiles{}, &fakeSink{})
	for eventType, ev := range eventTable {
		if _, ok := hub.resolvers[ev.Resolver]; !ok {
			t.Errorf("event %s references unregistered resolver %q", eventType, ev.Resolver)
		}
		switch ev.Strategy {
		case StrategyWebsocketOnly, StrategyWSFirstFCMFallback, StrategyBoth, StrategyFCMOnly:
		default:
			t.Errorf("event %s has unknown strategy %q", eventType, ev.Strategy)
		}
		if ev.Route == "" {
			t.Errorf("event %s has no route", eventType)
		}
	}
}

func TestRenderTemplate(t *testing.T) {
	got := renderTemplate("New {sub_category} job available in {location}",
		map[string]interface{}{"sub_category": "Plumbing", "location": "Andheri"})
	if want := "New Plumbing job available in Andheri"; got != want {
		t.Errorf("renderTemplate = %q, want %q", got, want)
	}

	// Unknown placeholders survive untouched.
	got = renderTemplate("Rate updated to ₹{hourly_rate}/hr", nil)
	if want := "Rate updated to ₹{hourly_rate}/hr"; got != want {
		t.Errorf("renderTemplate = %q, want %q", got, want)
	}
}

func TestStringifyData(t *testing.T) {
	ev := eventTable[EventNewJob]
	out := stringifyData(ev, map[string]interface{}{"hourly_rate": 400.0, "task_id": "78S-0001"})
	if out["hourly_rate"] != "400" {
		t.Errorf("hourly_rate = %q, want 400", out["hourly_rate"])
	}
	if out["route"] != "/homeScreen" {
		t.Errorf("route = %q, want /homeScreen", out["route"])
	}
	if out["notification_type"] != EventNewJob {
		t.Errorf("notification_type = %q, want %s", out["notification_type"], EventNewJob)
	}
}
