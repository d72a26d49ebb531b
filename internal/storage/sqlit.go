package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// Usage categories recorded per command.
const (
	CategoryAnalysis   = "analysis"
	CategoryCommentary = "commentary"
	CategoryHistory    = "history"
	CategoryHelp       = "help"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Close() error
}

type Store struct{ db DB }

// AnalysisRecord is the persisted summary of one analysis. Nil statistics
// were not computable and are stored as NULL.
type AnalysisRecord struct {
	Ref              string // assigned on save when empty
	ChatID           int64
	Tickers          []string
	Weights          []float64
	Lookback         string
	RiskFree         float64
	AnnualReturn     *float64
	AnnualVolatility *float64
	SharpeRatio      *float64
	MaxDrawdown      *float64
	CreatedAt        time.Time
}

// UsageStats counts commands within one category.
type UsageStats struct {
	Count    int
	Commands map[string]int
}

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref TEXT NOT NULL UNIQUE,
			chat_id INTEGER NOT NULL,
			tickers TEXT NOT NULL,
			weights TEXT NOT NULL,
			lookback TEXT NOT NULL,
			rf REAL NOT NULL,
			ann_return REAL,
			ann_vol REAL,
			sharpe REAL,
			max_dd REAL,
			ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_chat_ts ON analyses(chat_id, ts)`,
		`CREATE TABLE IF NOT EXISTS usage(
			chat_id INTEGER, command TEXT, category TEXT, ts INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_ts ON usage(ts)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db} }

func joinWeights(ws []float64) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = strconv.FormatFloat(w, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func splitWeights(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		w, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt weights %q: %w", s, err)
		}
		out[i] = w
	}
	return out, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// SaveAnalysis stores r and returns its reference.
func (s *Store) SaveAnalysis(r AnalysisRecord) (string, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Ref == "" {
		r.Ref = uuid.New().String()
	}
	_, err := s.db.Exec(`INSERT INTO analyses(ref,chat_id,tickers,weights,lookback,rf,ann_return,ann_vol,sharpe,max_dd,ts)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		r.Ref, r.ChatID, strings.Join(r.Tickers, ","), joinWeights(r.Weights), r.Lookback, r.RiskFree,
		r.AnnualReturn, r.AnnualVolatility, r.SharpeRatio, r.MaxDrawdown, r.CreatedAt.Unix())
	if err != nil {
		return "", err
	}
	return r.Ref, nil
}

const analysisColumns = `ref,chat_id,tickers,weights,lookback,rf,ann_return,ann_vol,sharpe,max_dd,ts`

func scanAnalyses(rows *sql.Rows) ([]AnalysisRecord, error) {
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var (
			r                     AnalysisRecord
			tickers, weights      string
			ret, vol, sharpe, mdd sql.NullFloat64
			ts                    int64
			err                   error
		)
		if err := rows.Scan(&r.Ref, &r.ChatID, &tickers, &weights, &r.Lookback, &r.RiskFree, &ret, &vol, &sharpe, &mdd, &ts); err != nil {
			return nil, err
		}
		if tickers != "" {
			r.Tickers = strings.Split(tickers, ",")
		}
		if r.Weights, err = splitWeights(weights); err != nil {
			return nil, err
		}
		r.AnnualReturn, r.AnnualVolatility = nullable(ret), nullable(vol)
		r.SharpeRatio, r.MaxDrawdown = nullable(sharpe), nullable(mdd)
		r.CreatedAt = time.Unix(ts, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentAnalyses returns up to limit analyses of the chat, newest first.
func (s *Store) RecentAnalyses(chatID int64, limit int) ([]AnalysisRecord, error) {
	rows, err := s.db.Query(`SELECT `+analysisColumns+`
		FROM analyses WHERE chat_id=? ORDER BY ts DESC, id DESC LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, err
	}
	return scanAnalyses(rows)
}

// FindAnalysis returns the newest analysis of the chat whose reference
// starts with prefix, or nil if none.
func (s *Store) FindAnalysis(chatID int64, prefix string) (*AnalysisRecord, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return s.LastAnalysis(chatID)
	}
	rows, err := s.db.Query(`SELECT `+analysisColumns+`
		FROM analyses WHERE chat_id=? AND substr(ref,1,?)=? ORDER BY ts DESC, id DESC LIMIT 1`,
		chatID, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	recs, err := scanAnalyses(rows)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// LastAnalysis returns the newest analysis of the chat, or nil if none.
func (s *Store) LastAnalysis(chatID int64) (*AnalysisRecord, error) {
	recs, err := s.RecentAnalyses(chatID, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (s *Store) RecordUsage(chatID int64, command, category string, ts int64) error {
	_, err := s.db.Exec(`INSERT INTO usage(chat_id,command,category,ts) VALUES(?,?,?,?)`,
		chatID, command, category, ts)
	return err
}

// UsageStats aggregates usage since the given unix time by category.
func (s *Store) UsageStats(since int64) (map[string]*UsageStats, error) {
	rows, err := s.db.Query(`SELECT category, command, COUNT(*) FROM usage
		WHERE ts>=? GROUP BY category, command`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]*UsageStats{}
	for rows.Next() {
		var category, command string
		var count int
		if err := rows.Scan(&category, &command, &count); err != nil {
			return nil, err
		}
		stat, ok := out[category]
		if !ok {
			stat = &UsageStats{Commands: map[string]int{}}
			out[category] = stat
		}
		stat.Count += count
		stat.Commands[command] += count
	}
	return out, rows.Err()
}

// PruneUsage deletes usage rows recorded before the given unix time.
func (s *Store) PruneUsage(before int64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM usage WHERE ts<?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
