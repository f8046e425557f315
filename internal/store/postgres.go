package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	business_name   TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	google_rating   DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count    INTEGER NOT NULL DEFAULT 0,
	has_website     BOOLEAN NOT NULL DEFAULT false,
	website_url     TEXT NOT NULL DEFAULT '',
	website_quality TEXT NOT NULL DEFAULT 'none',
	lead_score      INTEGER NOT NULL DEFAULT 0 CHECK (lead_score BETWEEN 0 AND 100),
	status          TEXT NOT NULL DEFAULT 'new',
	call_outcome    TEXT NOT NULL DEFAULT '',
	callback_date   TIMESTAMPTZ,
	tags            TEXT[] NOT NULL DEFAULT '{}',
	claimed_by      TEXT NOT NULL DEFAULT '',
	maps_url        TEXT NOT NULL DEFAULT '',
	dedup_key       TEXT NOT NULL,
	version         INTEGER NOT NULL DEFAULT 1,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_dedup_key ON leads(dedup_key);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(has_website, lead_score DESC);

CREATE TABLE IF NOT EXISTS daily_picks (
	id            TEXT PRIMARY KEY,
	business_name TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	website_url   TEXT NOT NULL DEFAULT '',
	lead_score    INTEGER NOT NULL DEFAULT 0,
	rank          INTEGER NOT NULL DEFAULT 0,
	picked_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS intelligence_log (
	id          TEXT PRIMARY KEY,
	action_type TEXT NOT NULL,
	industry    TEXT NOT NULL DEFAULT '',
	lead_id     TEXT NOT NULL DEFAULT '',
	metadata    JSONB NOT NULL DEFAULT '{}',
	outcome     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_intel_action_industry ON intelligence_log(action_type, industry, created_at DESC);
`

// Migrate applies the schema. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const leadColumns = `id, business_name, category, address, city, state, phone, email,
	google_rating, review_count, has_website, website_url, website_quality,
	lead_score, status, call_outcome, callback_date, tags, claimed_by,
	maps_url, version, created_at, updated_at`

// InsertLead persists a new lead, assigning its ID and timestamps. A
// unique-index hit on the dedup key maps to ErrDuplicateLead.
func (s *PostgresStore) InsertLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.Version == 0 {
		lead.Version = 1
	}
	if lead.Status == "" {
		lead.Status = model.StatusNew
	}

	key := normalize.DedupKey(lead.BusinessName, lead.City)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leads (
			id, business_name, category, address, city, state, phone, email,
			google_rating, review_count, has_website, website_url, website_quality,
			lead_score, status, call_outcome, callback_date, tags, claimed_by,
			maps_url, dedup_key, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24
		)`,
		lead.ID, lead.BusinessName, lead.Category, lead.Address, lead.City, lead.State,
		lead.Phone, lead.Email,
		lead.GoogleRating, lead.ReviewCount, lead.HasWebsite, lead.WebsiteURL, string(lead.WebsiteQuality),
		lead.LeadScore, string(lead.Status), string(lead.CallOutcome), lead.CallbackDate,
		tagsOrEmpty(lead.Tags), lead.ClaimedBy,
		lead.MapsURL, key, lead.Version, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLead
		}
		return eris.Wrapf(err, "postgres: insert lead %q", lead.BusinessName)
	}
	return nil
}

// GetLead fetches a lead by ID.
func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

// GetLeadByKey fetches a lead by its dedup key.
func (s *PostgresStore) GetLeadByKey(ctx context.Context, dedupKey string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE dedup_key = $1`, dedupKey)
	return scanLead(row)
}

// ListLeads returns leads matching the filter, ordered the same way the
// reconciler ranks them: no-website leads first, then score descending.
func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	var (
		conds []string
		args  []any
	)
	addCond := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, strings.Replace(expr, "?", placeholder(len(args)), 1))
	}

	if filter.Status != "" {
		addCond("status = ?", string(filter.Status))
	}
	if filter.City != "" {
		addCond("lower(city) = lower(?)", filter.City)
	}
	if filter.Category != "" {
		addCond("lower(category) = lower(?)", filter.Category)
	}
	if filter.MinScore > 0 {
		addCond("lead_score >= ?", filter.MinScore)
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY has_website ASC, lead_score DESC, business_name ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT " + placeholder(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET " + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLeadRow(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate leads")
	}
	return leads, nil
}

// ExistingKeys reports which of the given dedup keys are already persisted.
func (s *PostgresStore) ExistingKeys(ctx context.Context, dedupKeys []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(dedupKeys))
	if len(dedupKeys) == 0 {
		return existing, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT dedup_key FROM leads WHERE dedup_key = ANY($1)`, dedupKeys)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: existing keys")
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "postgres: scan key")
		}
		existing[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate keys")
	}
	return existing, nil
}

// UpdateLeadEngagement writes the engagement-mutable fields guarded by the
// lead's version. On success the lead's version is bumped in place.
func (s *PostgresStore) UpdateLeadEngagement(ctx context.Context, lead *model.Lead) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE leads SET
			lead_score = $2, status = $3, call_outcome = $4, callback_date = $5,
			claimed_by = $6, tags = $7,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $8`,
		lead.ID, lead.LeadScore, string(lead.Status), string(lead.CallOutcome),
		lead.CallbackDate, lead.ClaimedBy, tagsOrEmpty(lead.Tags), lead.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	lead.Version++
	return nil
}

// ReplaceDailyPicks swaps the whole daily pick set in one transaction.
func (s *PostgresStore) ReplaceDailyPicks(ctx context.Context, picks []model.DailyPick) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin picks transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM daily_picks`); err != nil {
		return eris.Wrap(err, "postgres: clear daily picks")
	}

	now := time.Now().UTC()
	for i := range picks {
		p := &picks[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.PickedAt = now
		_, err := tx.Exec(ctx, `
			INSERT INTO daily_picks (id, business_name, category, city, state, phone, website_url, lead_score, rank, picked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.BusinessName, p.Category, p.City, p.State, p.Phone, p.WebsiteURL, p.LeadScore, p.Rank, p.PickedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert pick %q", p.BusinessName)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit picks")
	}
	return nil
}

// ListDailyPicks returns the current snapshot ordered by rank.
func (s *PostgresStore) ListDailyPicks(ctx context.Context) ([]model.DailyPick, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, business_name, category, city, state, phone, website_url, lead_score, rank, picked_at
		FROM daily_picks ORDER BY rank ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list picks")
	}
	defer rows.Close()

	var picks []model.DailyPick
	for rows.Next() {
		var p model.DailyPick
		if err := rows.Scan(&p.ID, &p.BusinessName, &p.Category, &p.City, &p.State,
			&p.Phone, &p.WebsiteURL, &p.LeadScore, &p.Rank, &p.PickedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pick")
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// AppendLog records one intelligence event. Entries are never updated.
func (s *PostgresStore) AppendLog(ctx context.Context, entry *model.IntelligenceLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Industry = strings.ToLower(strings.TrimSpace(entry.Industry))
	entry.CreatedAt = time.Now().UTC()

	meta, err := json.Marshal(metaOrEmpty(entry.Metadata))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal log metadata")
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO intelligence_log (id, action_type, industry, lead_id, metadata, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, string(entry.ActionType), entry.Industry, entry.LeadID, meta, entry.Outcome, entry.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: append log")
	}
	return nil
}

// RecentLog returns the newest entries of one action type whose industry
// fuzzily matches: either string may contain the other, case-insensitive.
func (s *PostgresStore) RecentLog(ctx context.Context, action model.ActionType, industry string, limit int) ([]model.IntelligenceLogEntry, error) {
	industry = strings.ToLower(strings.TrimSpace(industry))

	rows, err := s.pool.Query(ctx, `
		SELECT id, action_type, industry, lead_id, metadata, outcome, created_at
		FROM intelligence_log
		WHERE action_type = $1
		  AND (industry ILIKE '%' || $2 || '%' OR $2 ILIKE '%' || industry || '%')
		ORDER BY created_at DESC
		LIMIT $3`,
		string(action), industry, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent log")
	}
	defer rows.Close()

	var entries []model.IntelligenceLogEntry
	for rows.Next() {
		var (
			e    model.IntelligenceLogEntry
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.ActionType, &e.Industry, &e.LeadID, &meta, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan log entry")
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal log metadata")
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*model.Lead, error) {
	lead, err := scanLeadRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func scanLeadRow(row rowScanner) (*model.Lead, error) {
	var lead model.Lead
	err := row.Scan(
		&lead.ID, &lead.BusinessName, &lead.Category, &lead.Address, &lead.City, &lead.State,
		&lead.Phone, &lead.Email,
		&lead.GoogleRating, &lead.ReviewCount, &lead.HasWebsite, &lead.WebsiteURL, &lead.WebsiteQuality,
		&lead.LeadScore, &lead.Status, &lead.CallOutcome, &lead.CallbackDate,
		&lead.Tags, &lead.ClaimedBy, &lead.MapsURL,
		&lead.Version, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan lead")
	}
	return &lead, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func metaOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
