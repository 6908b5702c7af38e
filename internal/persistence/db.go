// Package persistence provides SQLite-based league state storage: a whole-
// state snapshot that round-trips teams, rosters, and the full trade ledger,
// with trade timestamps preserved to the second.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Raptors65/nba-gm-simulator/internal/league"
)

// DB wraps a SQLite connection for league state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		abbreviation TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		conference TEXT NOT NULL,
		division TEXT NOT NULL,
		salary_cap REAL NOT NULL,
		luxury_tax REAL NOT NULL,
		roster_json TEXT NOT NULL,
		picks_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trades (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		team1 TEXT NOT NULL,
		team2 TEXT NOT NULL,
		team1_players_json TEXT NOT NULL,
		team2_players_json TEXT NOT NULL,
		team1_picks_json TEXT NOT NULL,
		team2_picks_json TEXT NOT NULL,
		status TEXT NOT NULL,
		proposed_by TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		counter_trade_id TEXT
	);

	CREATE TABLE IF NOT EXISTS league_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveState writes the whole league to the database (full replace) in one
// transaction. Reads go through the state's snapshot accessors so a save can
// run while the cycle ticker executes trades.
func (db *DB) SaveState(state *league.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM teams"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM trades"); err != nil {
		return err
	}

	teamStmt, err := tx.Preparex(`INSERT INTO teams
		(abbreviation, id, name, city, conference, division, salary_cap, luxury_tax, roster_json, picks_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer teamStmt.Close()

	abbrs := state.TeamAbbreviations()
	for _, abbr := range abbrs {
		t, ok := state.TeamSnapshot(abbr)
		if !ok {
			continue
		}
		rosterJSON, err := json.Marshal(t.Roster)
		if err != nil {
			return fmt.Errorf("marshal roster %s: %w", abbr, err)
		}
		picksJSON, err := json.Marshal(t.DraftPicks)
		if err != nil {
			return fmt.Errorf("marshal picks %s: %w", abbr, err)
		}
		if _, err := teamStmt.Exec(
			t.Abbreviation, t.ID, t.Name, t.City, t.Conference, t.Division,
			t.SalaryCap, t.LuxuryTax, string(rosterJSON), string(picksJSON),
		); err != nil {
			return fmt.Errorf("insert team %s: %w", abbr, err)
		}
	}

	tradeStmt, err := tx.Preparex(`INSERT INTO trades
		(id, team1, team2, team1_players_json, team2_players_json,
		 team1_picks_json, team2_picks_json, status, proposed_by, timestamp, counter_trade_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer tradeStmt.Close()

	trades := state.TradesSnapshot()
	for _, trade := range trades {
		t1Players, _ := json.Marshal(orEmpty(trade.Team1Players))
		t2Players, _ := json.Marshal(orEmpty(trade.Team2Players))
		t1Picks, _ := json.Marshal(orEmptyPicks(trade.Team1Picks))
		t2Picks, _ := json.Marshal(orEmptyPicks(trade.Team2Picks))

		if _, err := tradeStmt.Exec(
			trade.ID, trade.Team1, trade.Team2,
			string(t1Players), string(t2Players), string(t1Picks), string(t2Picks),
			string(trade.Status), trade.ProposedBy,
			trade.Timestamp.UTC().Truncate(time.Second).Format(time.RFC3339),
			trade.CounterTradeID,
		); err != nil {
			return fmt.Errorf("insert trade %s: %w", trade.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("league state saved", "teams", len(abbrs), "trades", len(trades))
	return nil
}

type teamRow struct {
	Abbreviation string  `db:"abbreviation"`
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	City         string  `db:"city"`
	Conference   string  `db:"conference"`
	Division     string  `db:"division"`
	SalaryCap    float64 `db:"salary_cap"`
	LuxuryTax    float64 `db:"luxury_tax"`
	RosterJSON   string  `db:"roster_json"`
	PicksJSON    string  `db:"picks_json"`
}

type tradeRow struct {
	Seq              int64  `db:"seq"`
	ID               string `db:"id"`
	Team1            string `db:"team1"`
	Team2            string `db:"team2"`
	Team1PlayersJSON string `db:"team1_players_json"`
	Team2PlayersJSON string `db:"team2_players_json"`
	Team1PicksJSON   string `db:"team1_picks_json"`
	Team2PicksJSON   string `db:"team2_picks_json"`
	Status           string `db:"status"`
	ProposedBy       string `db:"proposed_by"`
	Timestamp        string `db:"timestamp"`
	CounterTradeID   string `db:"counter_trade_id"`
}

// LoadState reads the whole league back. Returns an empty state when the
// database has never been saved to.
func (db *DB) LoadState() (*league.State, error) {
	state := league.NewState()

	var teamRows []teamRow
	if err := db.conn.Select(&teamRows, "SELECT * FROM teams"); err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	for _, row := range teamRows {
		var roster []league.Player
		if err := json.Unmarshal([]byte(row.RosterJSON), &roster); err != nil {
			return nil, fmt.Errorf("unmarshal roster %s: %w", row.Abbreviation, err)
		}
		var picks []league.DraftPick
		if err := json.Unmarshal([]byte(row.PicksJSON), &picks); err != nil {
			return nil, fmt.Errorf("unmarshal picks %s: %w", row.Abbreviation, err)
		}
		state.AddTeam(&league.Team{
			ID:           row.ID,
			Name:         row.Name,
			Abbreviation: row.Abbreviation,
			City:         row.City,
			Conference:   row.Conference,
			Division:     row.Division,
			Roster:       roster,
			DraftPicks:   picks,
			SalaryCap:    row.SalaryCap,
			LuxuryTax:    row.LuxuryTax,
		})
	}

	var tradeRows []tradeRow
	if err := db.conn.Select(&tradeRows, "SELECT * FROM trades ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	for _, row := range tradeRows {
		trade, err := row.toTrade()
		if err != nil {
			return nil, err
		}
		state.AppendTrade(trade)
	}
	return state, nil
}

func (row tradeRow) toTrade() (*league.Trade, error) {
	var t1Players, t2Players []string
	var t1Picks, t2Picks []league.DraftPick
	if err := json.Unmarshal([]byte(row.Team1PlayersJSON), &t1Players); err != nil {
		return nil, fmt.Errorf("unmarshal trade %s players: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Team2PlayersJSON), &t2Players); err != nil {
		return nil, fmt.Errorf("unmarshal trade %s players: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Team1PicksJSON), &t1Picks); err != nil {
		return nil, fmt.Errorf("unmarshal trade %s picks: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.Team2PicksJSON), &t2Picks); err != nil {
		return nil, fmt.Errorf("unmarshal trade %s picks: %w", row.ID, err)
	}
	timestamp, err := time.Parse(time.RFC3339, row.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse trade %s timestamp: %w", row.ID, err)
	}
	return &league.Trade{
		ID:             row.ID,
		Team1:          row.Team1,
		Team2:          row.Team2,
		Team1Players:   t1Players,
		Team2Players:   t2Players,
		Team1Picks:     t1Picks,
		Team2Picks:     t2Picks,
		Status:         league.TradeStatus(row.Status),
		ProposedBy:     row.ProposedBy,
		Timestamp:      timestamp,
		CounterTradeID: row.CounterTradeID,
	}, nil
}

// HasState reports whether a saved league exists.
func (db *DB) HasState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM teams"); err != nil {
		return false
	}
	return count > 0
}

// SaveMeta stores a key-value pair in league metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO league_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value; returns "" when the key is absent.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM league_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyPicks(s []league.DraftPick) []league.DraftPick {
	if s == nil {
		return []league.DraftPick{}
	}
	return s
}
