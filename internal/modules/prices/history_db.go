// Package prices stores daily price history and assembles aligned price tables.
package prices

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/basket/internal/database"
	"github.com/aristath/basket/internal/domain"
	"github.com/rs/zerolog"
)

// HistoryDB provides access to historical price data
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// DailyPrice represents a daily OHLCV price point
type DailyPrice struct {
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        *int64    `json:"volume,omitempty"`
}

// SyncState records when an instrument was last refreshed
type SyncState struct {
	Instrument    string     `json:"instrument"`
	LastSyncedAt  time.Time  `json:"last_synced_at"`
	LastPriceDate *time.Time `json:"last_price_date,omitempty"`
}

// GetDailyPrices returns prices for instrument within [start, end], oldest
// first. A zero start or end leaves that side unbounded.
func (h *HistoryDB) GetDailyPrices(ctx context.Context, instrument string, start, end time.Time) ([]DailyPrice, error) {
	startUnix := int64(0)
	if !start.IsZero() {
		startUnix = truncateDay(start).Unix()
	}
	endUnix := int64(1<<62 - 1)
	if !end.IsZero() {
		endUnix = truncateDay(end).Unix()
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, adjusted_close, volume
		FROM daily_prices
		WHERE instrument = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, instrument, startUnix, endUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		var dateUnix int64
		var open, high, low sql.NullFloat64
		var volume sql.NullInt64

		if err := rows.Scan(&dateUnix, &open, &high, &low, &p.Close, &p.AdjustedClose, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		p.Date = time.Unix(dateUnix, 0).UTC()
		p.Open = open.Float64
		p.High = high.Float64
		p.Low = low.Float64
		if volume.Valid {
			p.Volume = &volume.Int64
		}

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	return prices, nil
}

// SyncHistoricalPrices upserts daily prices for instrument and records the
// sync in a single transaction.
func (h *HistoryDB) SyncHistoricalPrices(ctx context.Context, instrument, source string, prices []DailyPrice) error {
	err := database.WithTransaction(h.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO daily_prices
			(instrument, date, open, high, low, close, adjusted_close, volume, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		var latest int64
		for _, price := range prices {
			if price.Close <= 0 {
				return fmt.Errorf("non-positive close %v on %s", price.Close, price.Date.Format(domain.DateLayout))
			}

			adjusted := price.AdjustedClose
			if adjusted <= 0 {
				adjusted = price.Close
			}

			volume := sql.NullInt64{}
			if price.Volume != nil {
				volume.Int64 = *price.Volume
				volume.Valid = true
			}

			dateUnix := truncateDay(price.Date).Unix()
			if dateUnix > latest {
				latest = dateUnix
			}

			if _, err := stmt.ExecContext(ctx,
				instrument,
				dateUnix,
				price.Open,
				price.High,
				price.Low,
				price.Close,
				adjusted,
				volume,
				source,
			); err != nil {
				return fmt.Errorf("failed to insert daily price for %s: %w", price.Date.Format(domain.DateLayout), err)
			}
		}

		lastPrice := sql.NullInt64{Int64: latest, Valid: latest > 0}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sync_state (instrument, last_synced_at, last_price_date)
			VALUES (?, ?, ?)
			ON CONFLICT(instrument) DO UPDATE SET
				last_synced_at = excluded.last_synced_at,
				last_price_date = MAX(COALESCE(sync_state.last_price_date, 0), COALESCE(excluded.last_price_date, 0))
		`, instrument, time.Now().Unix(), lastPrice)
		if err != nil {
			return fmt.Errorf("failed to update sync state: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.log.Info().
		Str("instrument", instrument).
		Int("count", len(prices)).
		Msg("Synced historical prices")

	return nil
}

// GetSyncState returns the sync record for instrument, or nil if it was
// never synced.
func (h *HistoryDB) GetSyncState(ctx context.Context, instrument string) (*SyncState, error) {
	var lastSynced int64
	var lastPrice sql.NullInt64

	err := h.db.QueryRowContext(ctx,
		"SELECT last_synced_at, last_price_date FROM sync_state WHERE instrument = ?",
		instrument,
	).Scan(&lastSynced, &lastPrice)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	state := &SyncState{
		Instrument:   instrument,
		LastSyncedAt: time.Unix(lastSynced, 0).UTC(),
	}
	if lastPrice.Valid && lastPrice.Int64 > 0 {
		t := time.Unix(lastPrice.Int64, 0).UTC()
		state.LastPriceDate = &t
	}
	return state, nil
}

// TrackedInstruments lists every instrument that has been synced at least once.
func (h *HistoryDB) TrackedInstruments(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT instrument FROM sync_state ORDER BY instrument")
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked instruments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var inst string
		if err := rows.Scan(&inst); err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
