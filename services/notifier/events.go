package notifier

import (
	"fmt"
	"strings"
)

// Delivery strategies. All operate per recipient.
const (
	StrategyWebsocketOnly      = "websocket_only"
	StrategyWSFirstFCMFallback = "ws_first_fcm_fallback"
	StrategyBoth               = "both"
	StrategyFCMOnly            = "fcm_only"
)

// Resolver kinds.
const (
	ResolveSeekers  = "seekers"
	ResolveJobOwner = "job_owner"
	ResolveSpecific = "specific"
)

// Canonical event types. The WS wire uses them verbatim.
const (
	EventNewJob              = "new_job"
	EventJobRateUpdate       = "job_rate_update"
	EventRemoveJob           = "remove_job"
	EventNewBid              = "new_bid"
	EventBidAccepted         = "bid_accepted"
	EventBidRejected         = "bid_rejected"
	EventJobStartOTP         = "job_start_otp"
	EventJobDoneOTP          = "job_done_otp"
	EventJobCancelBySeeker   = "job_cancel_by_seeker"
	EventJobCancelByProvider = "job_cancel_by_provider"
	EventDelayedCancel       = "delayed_cancel"
)

// Event is one row of the outbound event registry: who receives it, over
// which channels, and how the push notification reads. Immutable at
// runtime.
type Event struct {
	Type     string
	Resolver string
	Strategy string
	Title    string
	Body     string
	Route    string
	// AppType selects whose tokens the FCM fallback targets.
	AppType string
}

// eventTable is the closed set of outbound events, enumerated at startup.
var eventTable = map[string]Event{
	EventNewJob: {
		Type: EventNewJob, Resolver: ResolveSeekers, Strategy: StrategyBoth,
		Title: "New Job Available",
		Body:  "New {sub_category} job available in {location}",
		Route: "/homeScreen", AppType: "seeker",
	},
	EventJobRateUpdate: {
		Type: EventJobRateUpdate, Resolver: ResolveSeekers, Strategy: StrategyWebsocketOnly,
		Title: "Job Rate Updated",
		Body:  "Rate updated to ₹{hourly_rate}/hr for {sub_category} job",
		Route: "/homeScreen", AppType: "seeker",
	},
	EventRemoveJob: {
		Type: EventRemoveJob, Resolver: ResolveSeekers, Strategy: StrategyWebsocketOnly,
		Route: "/jobs-list", AppType: "seeker",
	},
	EventNewBid: {
		Type: EventNewBid, Resolver: ResolveJobOwner, Strategy: StrategyWSFirstFCMFallback,
		Title: "New Bid Received",
		Body:  "{seeker_name} placed a bid of ₹{amount} on your job",
		Route: "/bid-details", AppType: "provider",
	},
	EventBidAccepted: {
		Type: EventBidAccepted, Resolver: ResolveSpecific, Strategy: StrategyWSFirstFCMFallback,
		Title: "Bid Accepted",
		Route: "/job-tracking", AppType: "seeker",
	},
	EventBidRejected: {
		Type: EventBidRejected, Resolver: ResolveSpecific, Strategy: StrategyWSFirstFCMFallback,
		Title: "Bid Update",
		Route: "/jobs-list", AppType: "seeker",
	},
	EventJobStartOTP: {
		Type: EventJobStartOTP, Resolver: ResolveSpecific, Strategy: StrategyWSFirstFCMFallback,
		Title: "Job Started",
		Body:  "Work on task {task_id} has started",
		Route: "/job-tracking", AppType: "provider",
	},
	EventJobDoneOTP: {
		Type: EventJobDoneOTP, Resolver: ResolveSpecific, Strategy: StrategyWSFirstFCMFallback,
		Title: "Job Completed",
		Body:  "Task {task_id} is complete. Amount due: ₹{total_amount}",
		Route: "/job-summary", AppType: "provider",
	},
	EventJobCancelBySeeker: {
		Type: EventJobCancelBySeeker, Resolver: ResolveSpecific, Strategy: StrategyWSFirstFCMFallback,
		Title: "Job Cancelled",
		Body:  "The seeker cancelled task {task_id}",
		Route: "/jobs-list", AppType: "provider",
	},
	EventJobCancelByProvider: {
		Type: EventJobCancelByProvider, Resolver: ResolveSpecific, Strategy: StrategyWSFirstFCMFallback,
		Title: "Job Cancelled",
		Body:  "The provider cancelled task {task_id}",
		Route: "/jobs-list", AppType: "seeker",
	},
	EventDelayedCancel: {
		Type: EventDelayedCancel, Resolver: ResolveSpecific, Strategy: StrategyWSFirstFCMFallback,
		Title: "Job Cancelled",
		Body:  "Task {task_id} was cancelled by the provider",
		Route: "/jobs-list", AppType: "seeker",
	},
}

// LookupEvent returns the registry row for an event type.
func LookupEvent(eventType string) (Event, error) {
	ev, ok := eventTable[eventType]
	if !ok {
		return Event{}, fmt.Errorf("unknown event type %q", eventType)
	}
	return ev, nil
}

// renderTemplate substitutes {key} placeholders from the event data.
// Unknown placeholders are left in place.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	out := tmpl
	for key, value := range data {
		out = strings.ReplaceAll(out, "{"+key+"}", fmt.Sprintf("%v", value))
	}
	return out
}
