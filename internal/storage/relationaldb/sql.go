package relationaldb

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LeJamon/goOCR2/internal/core/types"
)

// MaxLimit caps LatestRounds.
const MaxLimit = 1000

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	feed                   TEXT    NOT NULL,
	round_id               BIGINT  NOT NULL,
	state                  TEXT    NOT NULL,
	config_digest          TEXT    NOT NULL,
	epoch                  BIGINT  NOT NULL,
	epoch_round            INTEGER NOT NULL,
	answer                 TEXT    NOT NULL,
	transmitter            TEXT    NOT NULL,
	observations_timestamp BIGINT  NOT NULL,
	juels_per_feecoin      TEXT    NOT NULL,
	slot                   BIGINT  NOT NULL,
	recorded_at            BIGINT  NOT NULL,
	tx_hash                TEXT    NOT NULL,
	PRIMARY KEY (feed, round_id)
);
CREATE INDEX IF NOT EXISTS rounds_by_slot ON rounds (slot);
`

const roundColumns = `feed, round_id, state, config_digest, epoch, epoch_round, answer, transmitter,
	observations_timestamp, juels_per_feecoin, slot, recorded_at, tx_hash`

// SQLRepository implements RoundRepository on database/sql.
type SQLRepository struct {
	mu     sync.RWMutex
	db     *sql.DB
	config *Config
}

var _ RoundRepository = (*SQLRepository)(nil)

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, config *Config) (*SQLRepository, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("open", "invalid configuration", err)
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, NewConnectionError("open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewConnectionError("open", "failed to ping database", err)
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, NewSchemaError("open", "failed to create schema", err)
		}
	}

	return &SQLRepository{db: db, config: config}, nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.config.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *SQLRepository) handle() (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db == nil {
		return nil, ErrDatabaseClosed
	}
	return r.db, nil
}

func (r *SQLRepository) SaveRound(ctx context.Context, rec *RoundRecord) error {
	db, err := r.handle()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.DefaultTimeout)
	defer cancel()

	var exists int
	err = db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*) FROM rounds WHERE feed = ? AND round_id = ?`),
		rec.Feed.String(), int64(rec.RoundID)).Scan(&exists)
	if err != nil {
		return NewQueryError("save_round", "failed to check round", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: round %d of %s", ErrDuplicate, rec.RoundID, rec.Feed)
	}

	_, err = db.ExecContext(ctx, r.rebind(`INSERT INTO rounds (`+roundColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.Feed.String(),
		int64(rec.RoundID),
		rec.State.String(),
		hex.EncodeToString(rec.ConfigDigest[:]),
		int64(rec.Epoch),
		int64(rec.Round),
		rec.Answer,
		rec.Transmitter.String(),
		int64(rec.ObservationsTimestamp),
		strconv.FormatUint(rec.JuelsPerFeecoin, 10),
		int64(rec.Slot),
		int64(rec.Timestamp),
		hex.EncodeToString(rec.TxHash[:]),
	)
	if err != nil {
		return NewQueryError("save_round", "failed to insert round", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRound(row rowScanner) (*RoundRecord, error) {
	var (
		rec                                  RoundRecord
		feed, state, digest, transmitter, tx string
		juels                                string
		roundID, epoch, round, obsTs         int64
		slot, timestamp                      int64
	)
	err := row.Scan(&feed, &roundID, &state, &digest, &epoch, &round, &rec.Answer, &transmitter,
		&obsTs, &juels, &slot, &timestamp, &tx)
	if err != nil {
		return nil, err
	}

	if rec.Feed, err = types.ParseAddress(feed); err != nil {
		return nil, NewDataError("scan_round", "bad feed", err)
	}
	if rec.State, err = types.ParseAddress(state); err != nil {
		return nil, NewDataError("scan_round", "bad state", err)
	}
	if rec.Transmitter, err = types.ParseAddress(transmitter); err != nil {
		return nil, NewDataError("scan_round", "bad transmitter", err)
	}
	if err := decodeHash(digest, &rec.ConfigDigest); err != nil {
		return nil, NewDataError("scan_round", "bad config digest", err)
	}
	if err := decodeHash(tx, &rec.TxHash); err != nil {
		return nil, NewDataError("scan_round", "bad tx hash", err)
	}
	if rec.JuelsPerFeecoin, err = strconv.ParseUint(juels, 10, 64); err != nil {
		return nil, NewDataError("scan_round", "bad juels per feecoin", err)
	}
	rec.RoundID = uint32(roundID)
	rec.Epoch = uint32(epoch)
	rec.Round = uint8(round)
	rec.ObservationsTimestamp = uint32(obsTs)
	rec.Slot = uint64(slot)
	rec.Timestamp = uint32(timestamp)
	return &rec, nil
}

func decodeHash(s string, out *[32]byte) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != len(out) {
		return fmt.Errorf("want %d bytes, got %d", len(out), len(raw))
	}
	copy(out[:], raw)
	return nil
}

func (r *SQLRepository) Round(ctx context.Context, feed types.Address, roundID uint32) (*RoundRecord, error) {
	db, err := r.handle()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.DefaultTimeout)
	defer cancel()

	row := db.QueryRowContext(ctx, r.rebind(`SELECT `+roundColumns+` FROM rounds WHERE feed = ? AND round_id = ?`),
		feed.String(), int64(roundID))
	rec, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: round %d of %s", ErrRoundNotFound, roundID, feed)
	}
	if err != nil {
		return nil, NewQueryError("round", "failed to read round", err)
	}
	return rec, nil
}

func (r *SQLRepository) LatestRounds(ctx context.Context, feed types.Address, limit int) ([]RoundRecord, error) {
	if limit <= 0 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	db, err := r.handle()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.DefaultTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, r.rebind(`SELECT `+roundColumns+` FROM rounds
		WHERE feed = ? ORDER BY round_id DESC LIMIT ?`), feed.String(), limit)
	if err != nil {
		return nil, NewQueryError("latest_rounds", "failed to query rounds", err)
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		rec, err := scanRound(rows)
		if err != nil {
			return nil, NewQueryError("latest_rounds", "failed to scan round", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("latest_rounds", "failed to iterate rounds", err)
	}
	return out, nil
}

func (r *SQLRepository) Summary(ctx context.Context, feed types.Address) (*FeedSummary, error) {
	db, err := r.handle()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.DefaultTimeout)
	defer cancel()

	var (
		count               int64
		first, last, lastTs sql.NullInt64
	)
	err = db.QueryRowContext(ctx, r.rebind(`SELECT COUNT(*), MIN(round_id), MAX(round_id), MAX(recorded_at)
		FROM rounds WHERE feed = ?`), feed.String()).Scan(&count, &first, &last, &lastTs)
	if err != nil {
		return nil, NewQueryError("summary", "failed to summarize feed", err)
	}
	s := &FeedSummary{Feed: feed, Rounds: uint64(count)}
	if count > 0 {
		s.FirstRoundID = uint32(first.Int64)
		s.LastRoundID = uint32(last.Int64)
		s.LastSeen = time.Unix(lastTs.Int64, 0).UTC()
	}
	return s, nil
}

func (r *SQLRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
