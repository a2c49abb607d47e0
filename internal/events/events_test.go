package events

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusSubscribeEmitUnsubscribe(t *testing.T) {
	bus := NewBus()

	var received []*Event
	id := bus.Subscribe(PricesSynced, func(e *Event) {
		received = append(received, e)
	})
	bus.Subscribe(AnalysisCompleted, func(e *Event) {
		t.Fatal("wrong type delivered")
	})

	bus.Emit(PricesSynced, "prices", map[string]interface{}{"instrument": "AAPL"})
	require.Len(t, received, 1)
	assert.Equal(t, PricesSynced, received[0].Type)
	assert.Equal(t, "prices", received[0].Module)
	assert.Equal(t, "AAPL", received[0].Data["instrument"])

	bus.Unsubscribe(id)
	assert.Equal(t, 0, bus.SubscriberCount(PricesSynced))
	bus.Emit(PricesSynced, "prices", nil)
	assert.Len(t, received, 1)
}

func TestManagerEmitTyped(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.New(nil).Level(zerolog.Disabled))

	var got *Event
	bus.Subscribe(AnalysisCompleted, func(e *Event) { got = e })

	manager.EmitTyped("analysis", &AnalysisCompletedData{
		ReportID:     "abc",
		Instruments:  []string{"AAPL", "GLD"},
		MedianReturn: 0.02,
	})

	require.NotNil(t, got)
	assert.Equal(t, "abc", got.Data["report_id"])
	assert.Equal(t, 0.02, got.Data["median_return"])
	assert.NotContains(t, got.Data, "sharpe_ratio")
}

func TestManagerEmitError(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.New(nil).Level(zerolog.Disabled))

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	manager.EmitError("scheduler", errors.New("sync failed"), map[string]interface{}{"job": "price_sync"})

	require.NotNil(t, got)
	assert.Equal(t, "sync failed", got.Data["error"])
	assert.Equal(t, "price_sync", got.Data["context"].(map[string]interface{})["job"])
}

func TestEventDataTypes(t *testing.T) {
	tests := []struct {
		data EventData
		want EventType
	}{
		{&AnalysisStartedData{}, AnalysisStarted},
		{&AnalysisCompletedData{}, AnalysisCompleted},
		{&AnalysisFailedData{}, AnalysisFailed},
		{&PricesSyncedData{}, PricesSynced},
		{&ReportArchivedData{}, ReportArchived},
		{&ReportsExpiredData{}, ReportsExpired},
		{&ErrorEventData{}, ErrorOccurred},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.data.EventType())
		assert.Contains(t, AllEventTypes, tt.want)
	}
}

func TestManagerStampsEvents(t *testing.T) {
	bus := NewBus()
	manager := NewManager(bus, zerolog.New(nil).Level(zerolog.Disabled))
	fixed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return fixed }

	var got *Event
	bus.Subscribe(ReportsExpired, func(e *Event) { got = e })
	manager.EmitTyped("analysis", &ReportsExpiredData{Deleted: 3})

	require.NotNil(t, got)
	assert.Equal(t, fixed, got.Timestamp)
	assert.Equal(t, 3.0, got.Data["deleted"])
}

func TestHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()

	calls := 0
	var id SubscriptionID
	id = bus.Subscribe(PricesSynced, func(*Event) {
		calls++
		bus.Unsubscribe(id)
	})

	bus.Emit(PricesSynced, "prices", nil)
	bus.Emit(PricesSynced, "prices", nil)
	assert.Equal(t, 1, calls)
}
