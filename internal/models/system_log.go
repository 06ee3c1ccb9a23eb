package models

import "time"

// SystemLog stores a structured ERROR+ log record.
type SystemLog struct {
	ID        string                 `bson:"_id" json:"id"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	Level     string                 `bson:"level" json:"level"`
	Message   string                 `bson:"message" json:"message"`
	RequestID string                 `bson:"request_id,omitempty" json:"request_id"`
	UserID    *string                `bson:"user_id,omitempty" json:"user_id"`
	Action    string                 `bson:"action,omitempty" json:"action"`
	Error     string                 `bson:"error,omitempty" json:"error"`
	LatencyMs int                    `bson:"latency_ms,omitempty" json:"latency_ms"`
	Extra     map[string]interface{} `bson:"extra,omitempty" json:"extra"`
}
