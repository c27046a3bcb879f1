package model

import (
	"encoding/json"
	"fmt"
)

// Meeting is one entry of the day's schedule. StartTime and EndTime are
// ISO-8601 strings as delivered by the snapshot producer; StartTime must
// parse to a time of day when rendered.
type Meeting struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Summary   string `json:"summary"`
}

// Task is one entry of the action list.
type Task struct {
	Complete bool   `json:"complete"`
	Summary  string `json:"summary"`
}

// WeatherSlot is one forecast point. Condition is a weatherapi.com
// condition code; Precipitation is a chance in percent.
type WeatherSlot struct {
	Time          string `json:"time"`
	Condition     int    `json:"condition"`
	Temperature   int    `json:"temperature"`
	Precipitation int    `json:"precipitation"`
}

// Snapshot is the immutable input of one render pass. Any of the lists may
// be nil, in which case the matching region renders no entries.
type Snapshot struct {
	Schedule []Meeting     `json:"schedule"`
	Tasks    []Task        `json:"tasks"`
	Weather  []WeatherSlot `json:"weather"`
}

// DecodeSnapshot parses the camelCase JSON document produced by the
// snapshot publisher.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("model: decode snapshot: %w", err)
	}
	return s, nil
}
