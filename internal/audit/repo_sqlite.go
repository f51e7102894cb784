package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS loot_rolls (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	player_id TEXT NOT NULL,
	loot_node_id TEXT NOT NULL,
	loot_source_id TEXT NOT NULL,
	biome_id TEXT NOT NULL,
	crafting_tier INTEGER NOT NULL,
	results_json TEXT NOT NULL,
	unlocked_json TEXT NOT NULL,
	created_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_loot_rolls_player ON loot_rolls (player_id, seq);
`

// SQLiteRepo stores rolls in a SQLite database in WAL mode.
type SQLiteRepo struct {
	db *sql.DB
}

// DefaultDSN is the audit database path inside a data directory.
func DefaultDSN(dataDir string) string {
	return filepath.Join(dataDir, "audit.db")
}

func OpenSQLite(dsn string) (*SQLiteRepo, error) {
	if dir := filepath.Dir(dsn); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// One writer keeps appends ordered.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit db wal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit db schema: %w", err)
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Append(ctx context.Context, roll LootRoll) (LootRoll, error) {
	if roll.ID == "" {
		roll.ID = uuid.NewString()
	}
	results, err := json.Marshal(roll.Results)
	if err != nil {
		return LootRoll{}, err
	}
	unlocked, err := json.Marshal(roll.Unlocked)
	if err != nil {
		return LootRoll{}, err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO loot_rolls
		(id, player_id, loot_node_id, loot_source_id, biome_id, crafting_tier, results_json, unlocked_json, created_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		roll.ID, roll.PlayerID, roll.LootNodeID, roll.LootSourceID, roll.BiomeID,
		roll.CraftingTier, string(results), string(unlocked), roll.CreatedAt.UnixMilli())
	if err != nil {
		return LootRoll{}, fmt.Errorf("append loot roll: %w", err)
	}
	return roll, nil
}

func (r *SQLiteRepo) ListByPlayer(ctx context.Context, playerID string, limit int) ([]LootRoll, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, player_id, loot_node_id, loot_source_id, biome_id,
		crafting_tier, results_json, unlocked_json, created_ms
		FROM loot_rolls WHERE player_id = ? ORDER BY seq DESC LIMIT ?`, playerID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list loot rolls: %w", err)
	}
	defer rows.Close()

	out := make([]LootRoll, 0)
	for rows.Next() {
		var (
			roll      LootRoll
			results   string
			unlocked  string
			createdMs int64
		)
		if err := rows.Scan(&roll.ID, &roll.PlayerID, &roll.LootNodeID, &roll.LootSourceID, &roll.BiomeID,
			&roll.CraftingTier, &results, &unlocked, &createdMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(results), &roll.Results); err != nil {
			return nil, fmt.Errorf("decode roll %s results: %w", roll.ID, err)
		}
		if err := json.Unmarshal([]byte(unlocked), &roll.Unlocked); err != nil {
			return nil, fmt.Errorf("decode roll %s unlocks: %w", roll.ID, err)
		}
		roll.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, roll)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}
