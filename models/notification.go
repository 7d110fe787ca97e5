package models

import "time"

// SocketMessage is the WebSocket wire envelope. Every server-to-client
// frame is {type, data}, nothing else.
type SocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// DeliveryReport records how one notification fan-out went. Persisted for
// analytics; never consulted on the hot path.
type DeliveryReport struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	EventType        string    `bson:"event_type" json:"event_type"`
	WSRecipients     []string  `bson:"ws_recipients" json:"ws_recipients"`
	PushRecipients   []string  `bson:"push_recipients" json:"push_recipients"`
	FailedRecipients []string  `bson:"failed_recipients" json:"failed_recipients"`
	SuccessRate      float64   `bson:"success_rate" json:"success_rate"`
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`
}
