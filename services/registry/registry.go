package registry

import (
	"encoding/json"
	"sync"

	"workerlly/models"
	"workerlly/utils"

	"go.uber.org/zap"
)

// Target selects the recipients of a broadcast. Precedence: UserID, then
// JobID (its tracker), then category/city cohort. Role narrows whatever
// the earlier fields selected.
type Target struct {
	UserID     string
	JobID      string
	CategoryID string
	CityID     string
	Role       string
}

// Registry indexes the live WebSocket connections of this process. One
// connection per user; a reconnect replaces the old one.
type Registry struct {
	mu          sync.RWMutex
	clients     map[string]*Client
	byCategory  map[string]map[string]bool
	byCity      map[string]map[string]bool
	byRole      map[string]map[string]bool
	trackedJobs map[string]string // job id -> tracking provider's user id
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:     make(map[string]*Client),
		byCategory:  make(map[string]map[string]bool),
		byCity:      make(map[string]map[string]bool),
		byRole:      make(map[string]map[string]bool),
		trackedJobs: make(map[string]string),
	}
}

// Connect registers the client under every index it belongs to. An
// existing connection for the same user is closed and replaced.
func (r *Registry) Connect(c *Client) {
	r.mu.Lock()
	if old, ok := r.clients[c.UserID]; ok {
		r.removeLocked(old)
		old.close()
	}
	r.clients[c.UserID] = c
	for _, cat := range c.CategoryIDs {
		if r.byCategory[cat] == nil {
			r.byCategory[cat] = make(map[string]bool)
		}
		r.byCategory[cat][c.UserID] = true
	}
	for _, city := range c.CityIDs {
		if r.byCity[city] == nil {
			r.byCity[city] = make(map[string]bool)
		}
		r.byCity[city][c.UserID] = true
	}
	for _, role := range c.Roles {
		if r.byRole[role] == nil {
			r.byRole[role] = make(map[string]bool)
		}
		r.byRole[role][c.UserID] = true
	}
	r.mu.Unlock()

	utils.GetLogger().Debug("websocket client connected",
		zap.String("user_id", c.UserID), zap.Strings("roles", c.Roles))
}

// Disconnect removes the client from every index and stops its pumps.
// Safe to call for a client that was already replaced.
func (r *Registry) Disconnect(c *Client) {
	r.mu.Lock()
	if current, ok := r.clients[c.UserID]; ok && current == c {
		r.removeLocked(c)
	}
	r.mu.Unlock()
	c.close()

	utils.GetLogger().Debug("websocket client disconnected", zap.String("user_id", c.UserID))
}

// removeLocked drops the client from all indexes. Caller holds the lock.
func (r *Registry) removeLocked(c *Client) {
	delete(r.clients, c.UserID)
	for _, cat := range c.CategoryIDs {
		delete(r.byCategory[cat], c.UserID)
	}
	for _, city := range c.CityIDs {
		delete(r.byCity[city], c.UserID)
	}
	for _, role := range c.Roles {
		delete(r.byRole[role], c.UserID)
	}
	for jobID, tracker := range r.trackedJobs {
		if tracker == c.UserID {
			delete(r.trackedJobs, jobID)
		}
	}
}

// IsConnected reports whether the user has a live channel.
func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}

// SendPersonal delivers one message to one user, best effort. A missing
// or saturated channel is not an error; a saturated channel is dropped.
func (r *Registry) SendPersonal(userID string, msg models.SocketMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.GetLogger().Error("failed to marshal socket message", zap.Error(err))
		return false
	}

	r.mu.RLock()
	c, ok := r.clients[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case c.Send <- data:
		return true
	default:
		utils.GetLogger().Debug("send buffer full, dropping client", zap.String("user_id", userID))
		r.Disconnect(c)
		return false
	}
}

// Broadcast resolves the target set and fans the message out. Finding no
// recipients is a normal outcome.
func (r *Registry) Broadcast(msg models.SocketMessage, target Target) int {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.GetLogger().Error("failed to marshal socket message", zap.Error(err))
		return 0
	}

	r.mu.RLock()
	recipients := r.resolveLocked(target)
	var stale []*Client
	delivered := 0
	for userID := range recipients {
		c, ok := r.clients[userID]
		if !ok {
			continue
		}
		select {
		case c.Send <- data:
			delivered++
		default:
			stale = append(stale, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range stale {
		r.Disconnect(c)
	}
	return delivered
}

// resolveLocked computes the recipient set for a target. Caller holds at
// least a read lock.
func (r *Registry) resolveLocked(t Target) map[string]bool {
	recipients := make(map[string]bool)

	switch {
	case t.UserID != "":
		recipients[t.UserID] = true
	case t.JobID != "":
		if tracker, ok := r.trackedJobs[t.JobID]; ok {
			recipients[tracker] = true
		}
	case t.CategoryID != "" && t.CityID != "":
		cityset := r.byCity[t.CityID]
		for userID := range r.byCategory[t.CategoryID] {
			if cityset[userID] {
				recipients[userID] = true
			}
		}
	default:
		for userID := range r.byCategory[t.CategoryID] {
			recipients[userID] = true
		}
		for userID := range r.byCity[t.CityID] {
			recipients[userID] = true
		}
	}

	if t.Role != "" {
		roleset := r.byRole[t.Role]
		for userID := range recipients {
			if !roleset[userID] {
				delete(recipients, userID)
			}
		}
	}
	return recipients
}

// StartTracking points the job's location relay at the provider.
func (r *Registry) StartTracking(providerUserID, jobID string) {
	r.mu.Lock()
	r.trackedJobs[jobID] = providerUserID
	r.mu.Unlock()
}

// StopTracking removes the job's relay entry.
func (r *Registry) StopTracking(jobID string) {
	r.mu.Lock()
	delete(r.trackedJobs, jobID)
	r.mu.Unlock()
}

// TrackerOf returns the user tracking a job, empty when none.
func (r *Registry) TrackerOf(jobID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.trackedJobs[jobID]
}

// RelayLocation forwards a seeker position to whoever tracks the job.
func (r *Registry) RelayLocation(jobID string, lat, lng float64) {
	r.mu.RLock()
	tracker := r.trackedJobs[jobID]
	r.mu.RUnlock()
	if tracker == "" {
		return
	}
	r.SendPersonal(tracker, models.SocketMessage{
		Type: "location_update",
		Data: map[string]interface{}{"job_id": jobID, "lat": lat, "lng": lng},
	})
}

// ConnectedUsers returns the user ids currently holding a channel.
func (r *Registry) ConnectedUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]string, 0, len(r.clients))
	for userID := range r.clients {
		users = append(users, userID)
	}
	return users
}
