package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventRun     EventType = "run"
	EventLoad    EventType = "load"
	EventMerge   EventType = "merge"
	EventDerive  EventType = "derive"
	EventScore   EventType = "score"
	EventCompany EventType = "company"
	EventTrend   EventType = "trend"
	EventGPU     EventType = "gpu"
	EventSkip    EventType = "skip"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseLevel maps a level name to an EventLevel, defaulting to info
func ParseLevel(s string) EventLevel {
	l := EventLevel(s)
	if _, ok := levelPriority[l]; ok {
		return l
	}
	return LevelInfo
}

// Event represents a single event in the pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	RunID     string            `json:"run_id,omitempty"`
	AppID     int64             `json:"app_id,omitempty"`
	Role      string            `json:"role,omitempty"`
	Company   string            `json:"company,omitempty"`
	Rank      int               `json:"rank,omitempty"`
	Score     float64           `json:"score,omitempty"`
	Label     string            `json:"label,omitempty"`
	Owners    int64             `json:"owners,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
	runID    string
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// SetRunID stamps every subsequent event with the given run ID
func (l *EventLogger) SetRunID(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.runID = id
	l.mu.Unlock()
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogRun logs the start or end of an analysis run
func (l *EventLogger) LogRun(stage string, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventRun,
		Reason:   stage,
		Duration: duration.Milliseconds(),
	})
}

// LogLoad logs one input table being read
func (l *EventLogger) LogLoad(table, path string, rows int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventLoad,
		Label:    table,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"path": path,
			"rows": strconv.Itoa(rows),
		},
	})
}

// LogMerge logs row counts through the two joins
func (l *EventLogger) LogMerge(listings, afterSnapshot, afterRequirement int) error {
	level := LevelInfo
	if afterRequirement < listings {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level: level,
		Event: EventMerge,
		Extra: map[string]string{
			"listings":          strconv.Itoa(listings),
			"after_snapshot":    strconv.Itoa(afterSnapshot),
			"after_requirement": strconv.Itoa(afterRequirement),
		},
	})
}

// LogDerive logs the outcome of field derivation
func (l *EventLogger) LogDerive(derived, excluded int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventDerive,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"derived":  strconv.Itoa(derived),
			"excluded": strconv.Itoa(excluded),
		},
	})
}

// LogSkip logs a title left out of a stage
func (l *EventLogger) LogSkip(stage EventType, appID int64, reason string) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventSkip,
		AppID:  appID,
		Reason: reason,
		Extra: map[string]string{
			"stage": string(stage),
		},
	})
}

// LogCompany logs a ranked company. A note marks companies that were not
// ranked.
func (l *EventLogger) LogCompany(role, name string, rank int, score float64, note string) error {
	level := LevelInfo
	if note != "" {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:   level,
		Event:   EventCompany,
		Role:    role,
		Company: name,
		Rank:    rank,
		Score:   score,
		Reason:  note,
	})
}

// LogTrend logs one changed tag
func (l *EventLogger) LogTrend(tag string, swing float64, minYear, maxYear int) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventTrend,
		Label: tag,
		Score: swing,
		Extra: map[string]string{
			"min_year": strconv.Itoa(minYear),
			"max_year": strconv.Itoa(maxYear),
		},
	})
}

// LogGPU logs one graphics card tier
func (l *EventLogger) LogGPU(label string, owners int64, major, minor int) error {
	return l.Log(&Event{
		Level:  LevelDebug,
		Event:  EventGPU,
		Label:  label,
		Owners: owners,
		Extra: map[string]string{
			"major": strconv.Itoa(major),
			"minor": strconv.Itoa(minor),
		},
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(stage EventType, appID int64, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	return l.Log(&Event{
		Level: LevelError,
		Event: stage,
		AppID: appID,
		Error: msg,
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
