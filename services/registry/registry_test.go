package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"workerlly/models"

	"github.com/gorilla/websocket"
)

// newTestConn dials a throwaway websocket server so clients under test
// hold a real connection.
func newTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Hold the server side open until the test tears down.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial test server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestClient(t *testing.T, r *Registry, userID string, categoryIDs, cityIDs, roles []string) *Client {
	t.Helper()
	return NewClient(r, newTestConn(t), userID, categoryIDs, cityIDs, roles, nil)
}

func drain(t *testing.T, c *Client) models.SocketMessage {
	t.Helper()
	select {
	case data := <-c.Send:
		var msg models.SocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal queued message: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message queued")
		return models.SocketMessage{}
	}
}

func TestSendPersonal(t *testing.T) {
	r := NewRegistry()
	c := newTestClient(t, r, "user-1", nil, nil, []string{"seeker"})
	r.Connect(c)

	if !r.IsConnected("user-1") {
		t.Fatal("expected user-1 connected")
	}
	if !r.SendPersonal("user-1", models.SocketMessage{Type: "greeting", Data: "hi"}) {
		t.Fatal("SendPersonal returned false for a connected user")
	}
	msg := drain(t, c)
	if msg.Type != "greeting" {
		t.Errorf("got type %q, want greeting", msg.Type)
	}

	if r.SendPersonal("ghost", models.SocketMessage{Type: "greeting"}) {
		t.Error("SendPersonal should return false for an unknown user")
	}
}

func TestBroadcastCohortIntersection(t *testing.T) {
	r := NewRegistry()
	inBoth := newTestClient(t, r, "in-both", []string{"cat-1"}, []string{"city-1"}, []string{"seeker"})
	wrongCity := newTestClient(t, r, "wrong-city", []string{"cat-1"}, []string{"city-2"}, []string{"seeker"})
	wrongCat := newTestClient(t, r, "wrong-cat", []string{"cat-2"}, []string{"city-1"}, []string{"seeker"})
	r.Connect(inBoth)
	r.Connect(wrongCity)
	r.Connect(wrongCat)

	n := r.Broadcast(models.SocketMessage{Type: "new_job"}, Target{CategoryID: "cat-1", CityID: "city-1"})
	if n != 1 {
		t.Fatalf("delivered to %d clients, want 1", n)
	}
	if msg := drain(t, inBoth); msg.Type != "new_job" {
		t.Errorf("got type %q, want new_job", msg.Type)
	}
	if len(wrongCity.Send) != 0 || len(wrongCat.Send) != 0 {
		t.Error("clients outside the cohort intersection received the broadcast")
	}
}

func TestBroadcastUnionWhenOneAxisMissing(t *testing.T) {
	r := NewRegistry()
	byCat := newTestClient(t, r, "by-cat", []string{"cat-1"}, []string{"city-9"}, []string{"seeker"})
	byCity := newTestClient(t, r, "by-city", []string{"cat-9"}, []string{"city-1"}, []string{"seeker"})
	r.Connect(byCat)
	r.Connect(byCity)

	if n := r.Broadcast(models.SocketMessage{Type: "new_job"}, Target{CategoryID: "cat-1"}); n != 1 {
		t.Errorf("category-only target delivered to %d, want 1", n)
	}
	drain(t, byCat)

	if n := r.Broadcast(models.SocketMessage{Type: "new_job"}, Target{CityID: "city-1"}); n != 1 {
		t.Errorf("city-only target delivered to %d, want 1", n)
	}
	drain(t, byCity)
}

func TestBroadcastUserIDWinsOverCohort(t *testing.T) {
	r := NewRegistry()
	direct := newTestClient(t, r, "direct", nil, nil, []string{"provider"})
	cohort := newTestClient(t, r, "cohort", []string{"cat-1"}, []string{"city-1"}, []string{"seeker"})
	r.Connect(direct)
	r.Connect(cohort)

	n := r.Broadcast(models.SocketMessage{Type: "bid_accepted"}, Target{
		UserID: "direct", CategoryID: "cat-1", CityID: "city-1",
	})
	if n != 1 {
		t.Fatalf("delivered to %d clients, want 1", n)
	}
	if len(cohort.Send) != 0 {
		t.Error("cohort client received a user-targeted message")
	}
	drain(t, direct)
}

func TestBroadcastJobTargetReachesTracker(t *testing.T) {
	r := NewRegistry()
	provider := newTestClient(t, r, "provider-1", nil, nil, []string{"provider"})
	r.Connect(provider)
	r.StartTracking("provider-1", "job-1")

	if n := r.Broadcast(models.SocketMessage{Type: "job_update"}, Target{JobID: "job-1"}); n != 1 {
		t.Fatalf("delivered to %d clients, want 1", n)
	}
	drain(t, provider)

	r.StopTracking("job-1")
	if n := r.Broadcast(models.SocketMessage{Type: "job_update"}, Target{JobID: "job-1"}); n != 0 {
		t.Errorf("delivered to %d clients after StopTracking, want 0", n)
	}
}

func TestBroadcastRoleFilter(t *testing.T) {
	r := NewRegistry()
	seeker := newTestClient(t, r, "seeker-1", []string{"cat-1"}, []string{"city-1"}, []string{"seeker"})
	provider := newTestClient(t, r, "provider-1", []string{"cat-1"}, []string{"city-1"}, []string{"provider"})
	r.Connect(seeker)
	r.Connect(provider)

	n := r.Broadcast(models.SocketMessage{Type: "new_job"}, Target{
		CategoryID: "cat-1", CityID: "city-1", Role: "seeker",
	})
	if n != 1 {
		t.Fatalf("delivered to %d clients, want 1", n)
	}
	if len(provider.Send) != 0 {
		t.Error("role filter failed to exclude the provider")
	}
	drain(t, seeker)
}

func TestReconnectReplacesExisting(t *testing.T) {
	r := NewRegistry()
	first := newTestClient(t, r, "user-1", []string{"cat-1"}, []string{"city-1"}, []string{"seeker"})
	second := newTestClient(t, r, "user-1", []string{"cat-1"}, []string{"city-1"}, []string{"seeker"})
	r.Connect(first)
	r.Connect(second)

	if users := r.ConnectedUsers(); len(users) != 1 {
		t.Fatalf("ConnectedUsers = %v, want exactly one entry", users)
	}
	r.SendPersonal("user-1", models.SocketMessage{Type: "ping"})
	if len(first.Send) != 0 {
		t.Error("replaced client still receiving messages")
	}
	if len(second.Send) != 1 {
		t.Error("active client did not receive the message")
	}
}

func TestDisconnectClearsTracking(t *testing.T) {
	r := NewRegistry()
	provider := newTestClient(t, r, "provider-1", nil, nil, []string{"provider"})
	r.Connect(provider)
	r.StartTracking("provider-1", "job-1")

	if got := r.TrackerOf("job-1"); got != "provider-1" {
		t.Fatalf("TrackerOf = %q, want provider-1", got)
	}

	r.Disconnect(provider)
	if r.IsConnected("provider-1") {
		t.Error("client still registered after Disconnect")
	}
	if got := r.TrackerOf("job-1"); got != "" {
		t.Errorf("TrackerOf = %q after disconnect, want empty", got)
	}
}

func TestRelayLocation(t *testing.T) {
	r := NewRegistry()
	provider := newTestClient(t, r, "provider-1", nil, nil, []string{"provider"})
	r.Connect(provider)
	r.StartTracking("provider-1", "job-1")

	r.RelayLocation("job-1", 19.076, 72.8777)
	msg := drain(t, provider)
	if msg.Type != "location_update" {
		t.Fatalf("got type %q, want location_update", msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected payload shape %T", msg.Data)
	}
	if data["job_id"] != "job-1" {
		t.Errorf("job_id = %v, want job-1", data["job_id"])
	}
}
