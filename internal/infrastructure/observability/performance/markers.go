package performance

import "time"

// Marker tracks a single operation from start to completion. A marker is
// owned and mutated by the goroutine that started the operation; it becomes
// visible to the tracker only when Complete publishes it, after which it is
// never written again.
type Marker struct {
	Operation string         `json:"operation"`
	UserID    string         `json:"userId"`
	StartTime time.Time      `json:"startTime"`
	EndTime   time.Time      `json:"endTime"`
	Duration  time.Duration  `json:"duration"`
	Completed bool           `json:"completed"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	id      string
	tracker *Tracker
}

// Complete finalizes the marker, computes its duration and publishes it to
// the tracker. Safe to call once; later calls are no-ops.
func (m *Marker) Complete() {
	if m.Completed {
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true

	if m.tracker != nil {
		m.tracker.publish(m)
	}
}

// SetSuccess records the operation outcome. Must be called before Complete.
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError marks the operation as failed and records the error message.
// Must be called before Complete.
func (m *Marker) SetError(err error) {
	m.Success = false
	if err != nil {
		m.Error = err.Error()
	}
}

// AddMetadata attaches arbitrary context to the marker. Must be called
// before Complete.
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}
