package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"TradeCouncil/internal/logger"
	"TradeCouncil/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logrus.Entry) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.Discard()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			ticker          TEXT NOT NULL,
			timeframe       TEXT,
			asset_class     TEXT,
			price           REAL,
			quote_source    TEXT,
			recommendation  TEXT,
			confidence      REAL,
			entry_price     REAL,
			target_price    REAL,
			stop_loss       REAL,
			risk_reward     REAL,
			bull_confidence REAL,
			bear_confidence REAL,
			debate_winner   TEXT,
			final_decision  TEXT,
			payload         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ticker_ts ON analysis_runs(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS quota_checks (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			usage     INTEGER,
			quota     INTEGER,
			percent   REAL,
			evicted   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quota_ts ON quota_checks(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(a *model.ComprehensiveAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	ts := a.GeneratedAt
	if ts.IsZero() {
		ts = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s := a.Strategy
	_, err = r.db.Exec(`INSERT OR REPLACE INTO analysis_runs
		(id, timestamp, ticker, timeframe, asset_class, price, quote_source,
		 recommendation, confidence, entry_price, target_price, stop_loss, risk_reward,
		 bull_confidence, bear_confidence, debate_winner, final_decision, payload)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, ts.UnixMilli(), a.Ticker, a.Timeframe, string(a.AssetClass), a.Quote.Price, a.Quote.Source,
		string(s.Recommendation), s.Confidence, s.EntryPrice, s.TargetPrice, s.StopLoss, s.RiskReward,
		a.Debate.BullCase.Confidence, a.Debate.BearCase.Confidence, string(a.Debate.Winner),
		string(a.Risk.FinalDecision), string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", a.ID, err)
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuota(evt *QuotaEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO quota_checks
		(timestamp, usage, quota, percent, evicted)
		VALUES (?,?,?,?,?)`,
		r.now().UnixMilli(), evt.Usage, evt.Quota, evt.Percent, evt.Evicted,
	)
	return err
}

func (r *SQLiteRecorder) RecentRuns(ticker string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, ticker, timeframe, price,
		recommendation, confidence, risk_reward, debate_winner, final_decision
		FROM analysis_runs
		WHERE (? = '' OR ticker = ?)
		ORDER BY timestamp DESC
		LIMIT ?`, ticker, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			s       RunSummary
			ms      int64
			rec     string
			winner  string
			verdict string
		)
		if err := rows.Scan(&s.ID, &ms, &s.Ticker, &s.Timeframe, &s.Price,
			&rec, &s.Confidence, &s.RiskReward, &winner, &verdict); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Timestamp = time.UnixMilli(ms)
		s.Recommendation = model.Recommendation(rec)
		s.Winner = model.Winner(winner)
		s.FinalDecision = model.Decision(verdict)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
