package model

import "time"

type HubStats struct {
	InstanceID       string        `json:"instance_id"`
	TotalStreams     int           `json:"total_streams"`
	TotalConnections int           `json:"total_connections"`
	Uptime           time.Duration `json:"uptime"`
	Streams          []StreamStats `json:"streams,omitempty"`
}

type StreamStats struct {
	Key         string `json:"key"`
	Connections int    `json:"connections"`
}
