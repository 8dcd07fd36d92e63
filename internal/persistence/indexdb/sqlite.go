package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"storefront.ai/internal/protocol"
	"storefront.ai/internal/sim/catalogs"
	"storefront.ai/internal/sim/tuning"
)

// SQLiteIndex is a secondary, queryable index over the day logs. Writes go
// through a single writer goroutine; the JSONL logs stay the source of
// truth, so a dropped index write is acceptable.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqDay reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind     reqKind
	day      *protocol.DailyReport
	snapshot snapshotRow
}

type snapshotRow struct {
	Day        int
	Path       string
	Seed       int64
	Stores     int
	Orders     int
	RecordedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS days (
			day INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			customers INTEGER NOT NULL,
			rejected INTEGER NOT NULL,
			sale_item TEXT,
			spike_item TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS store_days (
			day INTEGER NOT NULL,
			store_id TEXT NOT NULL,
			cash REAL NOT NULL,
			reputation INTEGER NOT NULL,
			level INTEGER NOT NULL,
			units_sold INTEGER NOT NULL,
			revenue REAL NOT NULL,
			wages_paid REAL NOT NULL,
			PRIMARY KEY (day, store_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_store_days_store ON store_days(store_id, day);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			day INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			stores INTEGER NOT NULL,
			orders INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteDay(report *protocol.DailyReport) error {
	if s == nil || s.closed.Load() || report == nil {
		return nil
	}
	select {
	case s.ch <- req{kind: reqDay, day: report}:
	default:
		// Drop if the indexer falls behind; day logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, day int, seed int64, stores, orders int) {
	if s == nil || s.closed.Load() || path == "" {
		return
	}
	r := snapshotRow{
		Day:        day,
		Path:       path,
		Seed:       seed,
		Stores:     stores,
		Orders:     orders,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// UpsertCatalogs records the run's configuration (raw item/vendor/upgrade
// JSON plus applied tuning) so a run's inputs can be audited later.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	raw := map[string][]byte{}
	read := func(name, path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		raw[name] = b
	}
	if configDir != "" {
		read("items_defs", filepath.Join(configDir, "items.json"))
		read("vendors", filepath.Join(configDir, "vendors.json"))
		read("upgrades", filepath.Join(configDir, "upgrades.json"))
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b := raw["items_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	if b := raw["vendors"]; len(b) > 0 {
		rows = append(rows, kv{name: "vendors", digest: cats.Vendors.Digest, json: b})
	}
	if b := raw["upgrades"]; len(b) > 0 {
		rows = append(rows, kv{name: "upgrades", digest: cats.Upgrades.Digest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// StoreHistory returns the per-day ledger rows for one store, ascending by
// day. Read side for dashboards and tests.
func (s *SQLiteIndex) StoreHistory(storeID string) ([]StoreDayRow, error) {
	rows, err := s.db.Query(
		`SELECT day, cash, reputation, level, units_sold, revenue, wages_paid
		 FROM store_days WHERE store_id = ? ORDER BY day`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoreDayRow
	for rows.Next() {
		r := StoreDayRow{StoreID: storeID}
		if err := rows.Scan(&r.Day, &r.Cash, &r.Reputation, &r.Level, &r.UnitsSold, &r.Revenue, &r.WagesPaid); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type StoreDayRow struct {
	Day        int
	StoreID    string
	Cash       float64
	Reputation int
	Level      int
	UnitsSold  int
	Revenue    float64
	WagesPaid  float64
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertDay, _ := s.db.Prepare(`INSERT OR REPLACE INTO days(day,digest,customers,rejected,sale_item,spike_item,raw_json) VALUES(?,?,?,?,?,?,?)`)
	insertStoreDay, _ := s.db.Prepare(`INSERT OR REPLACE INTO store_days(day,store_id,cash,reputation,level,units_sold,revenue,wages_paid) VALUES(?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(day,path,seed,stores,orders,recorded_at) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertDay != nil {
			_ = insertDay.Close()
		}
		if insertStoreDay != nil {
			_ = insertStoreDay.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqDay:
			rep := r.day
			var saleItem, spikeItem string
			if rep.Event != nil {
				saleItem, spikeItem = rep.Event.SaleItemID, rep.Event.SpikeItemID
			}
			raw, _ := json.Marshal(rep)
			if insertDay != nil {
				if _, err := tx.Stmt(insertDay).Exec(
					rep.Day,
					rep.Digest,
					rep.Customers,
					len(rep.Rejected),
					saleItem,
					spikeItem,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for _, sr := range rep.Stores {
				if insertStoreDay == nil {
					break
				}
				if _, err := tx.Stmt(insertStoreDay).Exec(
					rep.Day, sr.StoreID, sr.Cash, sr.Reputation, sr.Level,
					sr.UnitsSold, sr.Revenue, sr.WagesPaid,
				); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					sn.Day, sn.Path, sn.Seed, sn.Stores, sn.Orders, sn.RecordedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
