package storage

// sqlite.go — journal de trades sobre SQLite (pure Go, sin CGo).
//
// Tres tablas:
//   - `trades`: una fila por posición cerrada, inmutable.
//   - `equity`: muestras de la curva de equity, una por cierre.
//   - `risk_state`: una sola fila (id=1) con el estado del circuit breaker,
//     para que un trip sobreviva a reinicios del proceso.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/tierbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id              TEXT PRIMARY KEY,
    condition_id    TEXT NOT NULL,
    token_id        TEXT NOT NULL,
    question        TEXT,
    category        TEXT,
    tier            TEXT NOT NULL,
    entry_price     REAL NOT NULL,
    entry_time      DATETIME NOT NULL,
    shares          REAL NOT NULL,
    investment      REAL NOT NULL,
    fees_paid       REAL NOT NULL DEFAULT 0,
    exit_price      REAL,
    exit_time       DATETIME,
    exit_reason     TEXT,
    pnl             REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS equity (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    sampled_at DATETIME NOT NULL,
    value      REAL     NOT NULL
);

CREATE TABLE IF NOT EXISTS risk_state (
    id                 INTEGER PRIMARY KEY CHECK (id = 1),
    initial_capital    REAL    NOT NULL,
    realized_pnl       REAL    NOT NULL,
    consecutive_losses INTEGER NOT NULL,
    total_trades       INTEGER NOT NULL,
    tripped            INTEGER NOT NULL DEFAULT 0,
    tripped_at         DATETIME
);

CREATE INDEX IF NOT EXISTS idx_trades_exit   ON trades(exit_time DESC);
CREATE INDEX IF NOT EXISTS idx_equity_sample ON equity(sampled_at DESC);
`

// SQLiteJournal implementa ports.TradeJournal usando SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteJournal: apply schema: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// SaveTrade persiste una posición cerrada. Upsert por ID — reintentar un
// guardado fallido no duplica filas.
func (s *SQLiteJournal) SaveTrade(ctx context.Context, pos domain.Position) error {
	var exitPrice sql.NullFloat64
	var exitTime sql.NullTime
	if pos.ExitPrice != nil {
		exitPrice = sql.NullFloat64{Float64: *pos.ExitPrice, Valid: true}
	}
	if pos.ExitTime != nil {
		exitTime = sql.NullTime{Time: pos.ExitTime.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, condition_id, token_id, question, category, tier,
			 entry_price, entry_time, shares, investment, fees_paid,
			 exit_price, exit_time, exit_reason, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			exit_price  = excluded.exit_price,
			exit_time   = excluded.exit_time,
			exit_reason = excluded.exit_reason,
			fees_paid   = excluded.fees_paid,
			pnl         = excluded.pnl
	`,
		pos.ID,
		pos.Market.ConditionID,
		pos.Market.TokenID,
		pos.Market.Question,
		pos.Market.Category,
		pos.TierName,
		pos.EntryPrice,
		pos.EntryTime.UTC(),
		pos.Shares,
		pos.Investment,
		pos.FeesPaid,
		exitPrice,
		exitTime,
		string(pos.ExitReason),
		pos.PnL(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: upsert %s: %w", pos.ID, err)
	}
	return nil
}

// SaveEquityPoint añade una muestra a la curva de equity.
func (s *SQLiteJournal) SaveEquityPoint(ctx context.Context, at time.Time, value float64) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO equity (sampled_at, value) VALUES (?, ?)`,
		at.UTC(), value,
	); err != nil {
		return fmt.Errorf("storage.SaveEquityPoint: insert: %w", err)
	}
	return nil
}

// GetTrades devuelve todos los trades guardados, ordenados por cierre.
func (s *SQLiteJournal) GetTrades(ctx context.Context) ([]domain.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, condition_id, token_id, question, category, tier,
		       entry_price, entry_time, shares, investment, fees_paid,
		       exit_price, exit_time, exit_reason
		FROM trades
		ORDER BY exit_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.Position
	for rows.Next() {
		var pos domain.Position
		var exitPrice sql.NullFloat64
		var exitTime sql.NullTime
		var reason string

		if err := rows.Scan(
			&pos.ID,
			&pos.Market.ConditionID,
			&pos.Market.TokenID,
			&pos.Market.Question,
			&pos.Market.Category,
			&pos.TierName,
			&pos.EntryPrice,
			&pos.EntryTime,
			&pos.Shares,
			&pos.Investment,
			&pos.FeesPaid,
			&exitPrice,
			&exitTime,
			&reason,
		); err != nil {
			return nil, fmt.Errorf("storage.GetTrades: scan row: %w", err)
		}

		if exitPrice.Valid {
			p := exitPrice.Float64
			pos.ExitPrice = &p
		}
		if exitTime.Valid {
			t := exitTime.Time.UTC()
			pos.ExitTime = &t
		}
		pos.ExitReason = domain.ExitReason(reason)
		trades = append(trades, pos)
	}

	return trades, rows.Err()
}

// SaveRiskState persiste el estado del circuit breaker (una sola fila).
func (s *SQLiteJournal) SaveRiskState(ctx context.Context, state domain.RiskState) error {
	tripped := 0
	if state.Tripped {
		tripped = 1
	}
	var trippedAt sql.NullTime
	if state.TrippedAt != nil {
		trippedAt = sql.NullTime{Time: state.TrippedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_state
			(id, initial_capital, realized_pnl, consecutive_losses, total_trades, tripped, tripped_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			initial_capital    = excluded.initial_capital,
			realized_pnl       = excluded.realized_pnl,
			consecutive_losses = excluded.consecutive_losses,
			total_trades       = excluded.total_trades,
			tripped            = excluded.tripped,
			tripped_at         = excluded.tripped_at
	`,
		state.InitialCapital,
		state.RealizedPnL,
		state.ConsecutiveLosses,
		state.TotalTrades,
		tripped,
		trippedAt,
	)
	if err != nil {
		return fmt.Errorf("storage.SaveRiskState: upsert: %w", err)
	}
	return nil
}

// LoadRiskState carga el estado persistido. found=false si nunca se guardó.
func (s *SQLiteJournal) LoadRiskState(ctx context.Context) (domain.RiskState, bool, error) {
	var state domain.RiskState
	var tripped int
	var trippedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT initial_capital, realized_pnl, consecutive_losses, total_trades, tripped, tripped_at
		FROM risk_state WHERE id = 1
	`).Scan(
		&state.InitialCapital,
		&state.RealizedPnL,
		&state.ConsecutiveLosses,
		&state.TotalTrades,
		&tripped,
		&trippedAt,
	)
	if err == sql.ErrNoRows {
		return domain.RiskState{}, false, nil
	}
	if err != nil {
		return domain.RiskState{}, false, fmt.Errorf("storage.LoadRiskState: query: %w", err)
	}

	state.Tripped = tripped == 1
	if trippedAt.Valid {
		t := trippedAt.Time.UTC()
		state.TrippedAt = &t
	}
	return state, true, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
