package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Stage names a pipeline step in progress events.
type Stage string

const (
	StageBucket    Stage = "bucket"
	StageAggregate Stage = "aggregate"
	StageScore     Stage = "score"
	StageNormalize Stage = "normalize"
	StageDone      Stage = "done"
)

// Level is the severity of a progress event.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
)

func (l Level) String() string {
	if l == LevelWarn {
		return "warn"
	}
	return "info"
}

// Event is a human-readable progress notification.
type Event struct {
	RunID   uuid.UUID
	Time    time.Time
	Stage   Stage
	Country string
	Level   Level
	Message string
}

// Reporter receives progress events in emission order.
// Calls are serialized; a Reporter never runs concurrently with itself.
type Reporter func(Event)
