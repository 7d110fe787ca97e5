package handlers

import (
	"context"
	"net/http"
	"time"

	locationRepo "workerlly/database/repository/location"
	profileRepo "workerlly/database/repository/profile"
	"workerlly/middleware"
	"workerlly/models"
	"workerlly/services/bidding"
	jobService "workerlly/services/job"
	"workerlly/services/jobcache"
	"workerlly/services/registry"
	"workerlly/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// catchupDelay spaces out replayed events so a reconnecting client's UI
// renders them in order instead of receiving a burst.
const catchupDelay = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler owns the WebSocket endpoint: upgrade, registration, catch-up
// replay and inbound message dispatch.
type WSHandler struct {
	registry  *registry.Registry
	cache     *jobcache.Cache
	profiles  profileRepo.ProfileRepository
	locations locationRepo.LocationRepository
	jobs      *jobService.Service
	bids      *bidding.Service
}

// NewWSHandler wires the WebSocket endpoint.
func NewWSHandler(reg *registry.Registry, cache *jobcache.Cache, profiles profileRepo.ProfileRepository, locations locationRepo.LocationRepository, jobs *jobService.Service, bids *bidding.Service) *WSHandler {
	return &WSHandler{
		registry: reg, cache: cache, profiles: profiles,
		locations: locations, jobs: jobs, bids: bids,
	}
}

// Serve handles GET /ws?token=… . The auth middleware has already
// resolved the user; here we index the channel and start the pumps.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID.IsZero() {
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var categoryIDs, cityIDs []string
	roles := []string{}
	if v, ok := c.Get(middleware.CtxRoles); ok {
		roles = v.([]string)
	}

	stats, err := h.profiles.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		utils.GetLogger().Warn("failed to load profile for ws connect",
			zap.String("user_id", userID.Hex()), zap.Error(err))
	}
	if stats != nil && stats.SeekerStats != nil {
		categoryIDs = append(categoryIDs, stats.SeekerStats.Category.CategoryID.Hex())
		cityIDs = append(cityIDs, stats.SeekerStats.CityID.Hex())
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := registry.NewClient(h.registry, conn, userID.Hex(), categoryIDs, cityIDs, roles, h.dispatch)
	h.registry.Connect(client)

	go h.catchUp(client, categoryIDs, cityIDs)

	// Blocks for the lifetime of the connection.
	client.Run()
}

// catchUp replays the cohort's recent jobs to a fresh seeker connection
// and restores a provider's in-flight job context.
func (h *WSHandler) catchUp(client *registry.Client, categoryIDs, cityIDs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(categoryIDs) > 0 && len(cityIDs) > 0 {
		events, err := h.cache.Recent(ctx, categoryIDs[0], cityIDs[0])
		if err != nil {
			utils.GetLogger().Warn("catch-up read failed", zap.Error(err))
		}
		for _, event := range events {
			if !client.SendMessage(models.SocketMessage{Type: "new_job", Data: event}) {
				return
			}
			time.Sleep(catchupDelay)
		}
	}

	if jobID, err := h.cache.LookupUserCurrentJob(ctx, client.UserID); err == nil && jobID != "" {
		client.SendMessage(models.SocketMessage{
			Type: "job_details",
			Data: map[string]interface{}{"id": jobID, "restored": true},
		})
	}
}

// dispatch routes one inbound frame. Failures go back on the same
// channel as {type: "error"}; they never close the connection.
func (h *WSHandler) dispatch(client *registry.Client, msg models.SocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(client.UserID)
	if err != nil {
		return
	}
	data, _ := msg.Data.(map[string]interface{})

	switch msg.Type {
	case "get_job_details":
		h.getJobDetails(ctx, client, userID, data)
	case "new_bid":
		h.placeBid(ctx, client, userID, data)
	case "accept_bid":
		h.acceptBid(ctx, client, userID, data)
	case "get_bids_for_job":
		h.getBidsForJob(ctx, client, userID, data)
	case "start_tracking":
		if jobID, ok := stringField(data, "job_id"); ok {
			h.registry.StartTracking(client.UserID, jobID)
			client.SendMessage(models.SocketMessage{Type: "tracking_started", Data: map[string]interface{}{"job_id": jobID}})
		}
	case "stop_tracking":
		if jobID, ok := stringField(data, "job_id"); ok {
			h.registry.StopTracking(jobID)
			client.SendMessage(models.SocketMessage{Type: "tracking_stopped", Data: map[string]interface{}{"job_id": jobID}})
		}
	case "location_update":
		h.locationUpdate(ctx, client, userID, data)
	default:
		client.SendMessage(models.SocketMessage{Type: "error", Data: "unknown message type: " + msg.Type})
	}
}

func (h *WSHandler) getJobDetails(ctx context.Context, client *registry.Client, userID primitive.ObjectID, data map[string]interface{}) {
	jobID, ok := objectIDField(data, "job_id")
	if !ok {
		client.SendMessage(models.SocketMessage{Type: "error", Data: "job_id is required"})
		return
	}
	j, err := h.jobs.GetJob(ctx, userID, jobID)
	if err != nil {
		client.SendMessage(models.SocketMessage{Type: "error", Data: err.Error()})
		return
	}
	client.SendMessage(models.SocketMessage{Type: "job_details", Data: j})
}

func (h *WSHandler) placeBid(ctx context.Context, client *registry.Client, userID primitive.ObjectID, data map[string]interface{}) {
	jobID, ok := objectIDField(data, "job_id")
	amount, okAmount := floatField(data, "amount")
	if !ok || !okAmount {
		client.SendMessage(models.SocketMessage{Type: "error", Data: "job_id and amount are required"})
		return
	}
	bid, err := h.bids.CreateBid(ctx, userID, jobID, amount)
	if err != nil {
		client.SendMessage(models.SocketMessage{Type: "error", Data: err.Error()})
		return
	}
	client.SendMessage(models.SocketMessage{Type: "bid_status_update", Data: bid})
}

func (h *WSHandler) acceptBid(ctx context.Context, client *registry.Client, userID primitive.ObjectID, data map[string]interface{}) {
	bidID, ok := objectIDField(data, "bid_id")
	if !ok {
		client.SendMessage(models.SocketMessage{Type: "error", Data: "bid_id is required"})
		return
	}
	minutes := 0
	if v, ok := floatField(data, "estimated_time_minutes"); ok {
		minutes = int(v)
	}
	j, err := h.bids.AcceptBid(ctx, userID, bidID, minutes)
	if err != nil {
		client.SendMessage(models.SocketMessage{Type: "error", Data: err.Error()})
		return
	}
	client.SendMessage(models.SocketMessage{Type: "bid_status_update", Data: j})
}

func (h *WSHandler) getBidsForJob(ctx context.Context, client *registry.Client, userID primitive.ObjectID, data map[string]interface{}) {
	jobID, ok := objectIDField(data, "job_id")
	if !ok {
		client.SendMessage(models.SocketMessage{Type: "error", Data: "job_id is required"})
		return
	}
	bids, err := h.bids.ListBidsForJob(ctx, userID, jobID)
	if err != nil {
		client.SendMessage(models.SocketMessage{Type: "error", Data: err.Error()})
		return
	}
	// The bid sheet rides the job_details envelope so clients only ever
	// see the enumerated message types.
	client.SendMessage(models.SocketMessage{
		Type: "job_details",
		Data: map[string]interface{}{"job_id": jobID.Hex(), "bids": bids},
	})
}

// locationUpdate persists the seeker's position and relays it to the
// tracking provider.
func (h *WSHandler) locationUpdate(ctx context.Context, client *registry.Client, userID primitive.ObjectID, data map[string]interface{}) {
	jobIDHex, ok := stringField(data, "job_id")
	lat, okLat := floatField(data, "lat")
	lng, okLng := floatField(data, "lng")
	if !ok || !okLat || !okLng {
		client.SendMessage(models.SocketMessage{Type: "error", Data: "job_id, lat and lng are required"})
		return
	}
	jobID, err := primitive.ObjectIDFromHex(jobIDHex)
	if err != nil {
		client.SendMessage(models.SocketMessage{Type: "error", Data: "invalid job_id"})
		return
	}

	point := models.NewGeoPoint(lat, lng)
	if _, err := h.locations.UpdateSeekerPoint(ctx, jobID, point); err != nil {
		utils.GetLogger().Debug("failed to persist seeker point", zap.Error(err))
	}
	if err := h.profiles.UpdateSeekerLocation(ctx, userID, point); err != nil {
		utils.GetLogger().Debug("failed to update seeker location", zap.Error(err))
	}
	h.registry.RelayLocation(jobIDHex, lat, lng)
}

func stringField(data map[string]interface{}, key string) (string, bool) {
	if data == nil {
		return "", false
	}
	s, ok := data[key].(string)
	return s, ok && s != ""
}

func objectIDField(data map[string]interface{}, key string) (primitive.ObjectID, bool) {
	s, ok := stringField(data, key)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func floatField(data map[string]interface{}, key string) (float64, bool) {
	if data == nil {
		return 0, false
	}
	f, ok := data[key].(float64)
	return f, ok
}
