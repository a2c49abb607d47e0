package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Manager stamps, publishes and logs events for the rest of the application
type Manager struct {
	bus *Bus
	log zerolog.Logger
	now func() time.Time
}

// NewManager wraps bus
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
		now: time.Now,
	}
}

// Bus returns the underlying bus for subscribers
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Emit publishes a loosely typed event. Failure events are logged at warn
// level, everything else at debug.
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := &Event{
		Type:      eventType,
		Timestamp: m.now(),
		Data:      data,
		Module:    module,
	}
	m.bus.Publish(event)

	entry := m.log.Debug()
	if eventType == AnalysisFailed || eventType == ErrorOccurred {
		entry = m.log.Warn()
	}
	entry.
		Str("event_type", string(eventType)).
		Str("module", module).
		Fields(data).
		Msg("Event emitted")
}

// EmitTyped publishes one of the payloads from event_data.go. The payload is
// flattened through its JSON tags, so numbers reach subscribers as float64.
func (m *Manager) EmitTyped(module string, data EventData) {
	payload, err := toPayload(data)
	if err != nil {
		m.log.Error().Err(err).Str("event_type", string(data.EventType())).Msg("Dropping event with unencodable payload")
		return
	}
	m.Emit(data.EventType(), module, payload)
}

// EmitError publishes ERROR_OCCURRED for err
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	m.EmitTyped(module, &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	})
}

func toPayload(data EventData) (map[string]interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", data.EventType(), err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", data.EventType(), err)
	}
	return payload, nil
}
