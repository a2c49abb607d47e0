package testing

import (
	"context"
	"sync"
	"time"

	"github.com/aristath/basket/internal/clients/yahoo"
)

// MockFetcher serves one price per calendar day, rising by one from 100 on
// the first requested day
type MockFetcher struct {
	mu    sync.Mutex
	Err   error
	Calls []string
}

// GetHistoricalPrices implements the prices fetcher interface
func (m *MockFetcher) GetHistoricalPrices(_ context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, symbol)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	var out []yahoo.HistoricalPrice
	for d, p := start, 100.0; !d.After(end); d, p = d.AddDate(0, 0, 1), p+1 {
		out = append(out, yahoo.HistoricalPrice{Date: d, Close: p, AdjClose: p})
	}
	return out, nil
}

// StubJob counts runs and returns Err from each one
type StubJob struct {
	JobName string
	Err     error

	mu   sync.Mutex
	runs int
}

// Run implements scheduler.Job
func (j *StubJob) Run() error {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	return j.Err
}

// Name implements scheduler.Job
func (j *StubJob) Name() string { return j.JobName }

// Runs returns how many times the job ran
func (j *StubJob) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}
