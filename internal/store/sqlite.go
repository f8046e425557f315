package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// SQLiteStore implements Store using modernc.org/sqlite, for single-user
// local setups without a Postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path in WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id              TEXT PRIMARY KEY,
	business_name   TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	city            TEXT NOT NULL DEFAULT '',
	state           TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	email           TEXT NOT NULL DEFAULT '',
	google_rating   REAL NOT NULL DEFAULT 0,
	review_count    INTEGER NOT NULL DEFAULT 0,
	has_website     INTEGER NOT NULL DEFAULT 0,
	website_url     TEXT NOT NULL DEFAULT '',
	website_quality TEXT NOT NULL DEFAULT 'none',
	lead_score      INTEGER NOT NULL DEFAULT 0 CHECK (lead_score BETWEEN 0 AND 100),
	status          TEXT NOT NULL DEFAULT 'new',
	call_outcome    TEXT NOT NULL DEFAULT '',
	callback_date   DATETIME,
	tags            TEXT NOT NULL DEFAULT '[]',
	claimed_by      TEXT NOT NULL DEFAULT '',
	maps_url        TEXT NOT NULL DEFAULT '',
	dedup_key       TEXT NOT NULL UNIQUE,
	version         INTEGER NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

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
	picked_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS intelligence_log (
	id          TEXT PRIMARY KEY,
	action_type TEXT NOT NULL,
	industry    TEXT NOT NULL DEFAULT '',
	lead_id     TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}',
	outcome     TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intel_action_industry ON intelligence_log(action_type, industry, created_at DESC);
`

// Migrate applies the schema. Idempotent.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertLead persists a new lead; a dedup-key collision maps to
// ErrDuplicateLead.
func (s *SQLiteStore) InsertLead(ctx context.Context, lead *model.Lead) error {
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

	tags, err := json.Marshal(tagsOrEmpty(lead.Tags))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tags")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads (
			id, business_name, category, address, city, state, phone, email,
			google_rating, review_count, has_website, website_url, website_quality,
			lead_score, status, call_outcome, callback_date, tags, claimed_by,
			maps_url, dedup_key, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.BusinessName, lead.Category, lead.Address, lead.City, lead.State,
		lead.Phone, lead.Email,
		lead.GoogleRating, lead.ReviewCount, lead.HasWebsite, lead.WebsiteURL, string(lead.WebsiteQuality),
		lead.LeadScore, string(lead.Status), string(lead.CallOutcome), nullTime(lead.CallbackDate),
		string(tags), lead.ClaimedBy,
		lead.MapsURL, normalize.DedupKey(lead.BusinessName, lead.City), lead.Version, lead.CreatedAt, lead.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateLead
		}
		return eris.Wrapf(err, "sqlite: insert lead %q", lead.BusinessName)
	}
	return nil
}

// GetLead fetches a lead by ID.
func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	return scanSQLiteLead(row)
}

// GetLeadByKey fetches a lead by its dedup key.
func (s *SQLiteStore) GetLeadByKey(ctx context.Context, dedupKey string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE dedup_key = ?`, dedupKey)
	return scanSQLiteLead(row)
}

// ListLeads returns leads matching the filter in rank order.
func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.City != "" {
		conds = append(conds, "lower(city) = lower(?)")
		args = append(args, filter.City)
	}
	if filter.Category != "" {
		conds = append(conds, "lower(category) = lower(?)")
		args = append(args, filter.Category)
	}
	if filter.MinScore > 0 {
		conds = append(conds, "lead_score >= ?")
		args = append(args, filter.MinScore)
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY has_website ASC, lead_score DESC, business_name ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanSQLiteLeadRow(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// ExistingKeys reports which of the given dedup keys are already persisted.
func (s *SQLiteStore) ExistingKeys(ctx context.Context, dedupKeys []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(dedupKeys))
	if len(dedupKeys) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(dedupKeys)), ",")
	args := make([]any, len(dedupKeys))
	for i, k := range dedupKeys {
		args[i] = k
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT dedup_key FROM leads WHERE dedup_key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: existing keys")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan key")
		}
		existing[key] = true
	}
	return existing, rows.Err()
}

// UpdateLeadEngagement writes the engagement-mutable fields guarded by
// the lead's version.
func (s *SQLiteStore) UpdateLeadEngagement(ctx context.Context, lead *model.Lead) error {
	tags, err := json.Marshal(tagsOrEmpty(lead.Tags))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tags")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET
			lead_score = ?, status = ?, call_outcome = ?, callback_date = ?,
			claimed_by = ?, tags = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		lead.LeadScore, string(lead.Status), string(lead.CallOutcome), nullTime(lead.CallbackDate),
		lead.ClaimedBy, string(tags), time.Now().UTC(),
		lead.ID, lead.Version,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", lead.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrVersionConflict
	}
	lead.Version++
	return nil
}

// ReplaceDailyPicks swaps the whole daily pick set in one transaction.
func (s *SQLiteStore) ReplaceDailyPicks(ctx context.Context, picks []model.DailyPick) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin picks transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_picks`); err != nil {
		return eris.Wrap(err, "sqlite: clear daily picks")
	}

	now := time.Now().UTC()
	for i := range picks {
		p := &picks[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.PickedAt = now
		_, err := tx.ExecContext(ctx, `
			INSERT INTO daily_picks (id, business_name, category, city, state, phone, website_url, lead_score, rank, picked_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.BusinessName, p.Category, p.City, p.State, p.Phone, p.WebsiteURL, p.LeadScore, p.Rank, p.PickedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert pick %q", p.BusinessName)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit picks")
}

// ListDailyPicks returns the current snapshot ordered by rank.
func (s *SQLiteStore) ListDailyPicks(ctx context.Context) ([]model.DailyPick, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_name, category, city, state, phone, website_url, lead_score, rank, picked_at
		FROM daily_picks ORDER BY rank ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list picks")
	}
	defer rows.Close() //nolint:errcheck

	var picks []model.DailyPick
	for rows.Next() {
		var p model.DailyPick
		if err := rows.Scan(&p.ID, &p.BusinessName, &p.Category, &p.City, &p.State,
			&p.Phone, &p.WebsiteURL, &p.LeadScore, &p.Rank, &p.PickedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pick")
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// AppendLog records one intelligence event.
func (s *SQLiteStore) AppendLog(ctx context.Context, entry *model.IntelligenceLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.Industry = strings.ToLower(strings.TrimSpace(entry.Industry))
	entry.CreatedAt = time.Now().UTC()

	meta, err := json.Marshal(metaOrEmpty(entry.Metadata))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal log metadata")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intelligence_log (id, action_type, industry, lead_id, metadata, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.ActionType), entry.Industry, entry.LeadID, string(meta), entry.Outcome, entry.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: append log")
	}
	return nil
}

// RecentLog mirrors the Postgres fuzzy industry match with LIKE, which is
// case-insensitive for ASCII in SQLite.
func (s *SQLiteStore) RecentLog(ctx context.Context, action model.ActionType, industry string, limit int) ([]model.IntelligenceLogEntry, error) {
	industry = strings.ToLower(strings.TrimSpace(industry))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action_type, industry, lead_id, metadata, outcome, created_at
		FROM intelligence_log
		WHERE action_type = ?
		  AND (industry LIKE '%' || ? || '%' OR ? LIKE '%' || industry || '%')
		ORDER BY created_at DESC
		LIMIT ?`,
		string(action), industry, industry, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent log")
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.IntelligenceLogEntry
	for rows.Next() {
		var (
			e    model.IntelligenceLogEntry
			meta string
		)
		if err := rows.Scan(&e.ID, &e.ActionType, &e.Industry, &e.LeadID, &meta, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan log entry")
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal log metadata")
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanSQLiteLead(row *sql.Row) (*model.Lead, error) {
	lead, err := scanSQLiteLeadRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

func scanSQLiteLeadRow(row rowScanner) (*model.Lead, error) {
	var (
		lead     model.Lead
		tags     string
		callback sql.NullTime
	)
	err := row.Scan(
		&lead.ID, &lead.BusinessName, &lead.Category, &lead.Address, &lead.City, &lead.State,
		&lead.Phone, &lead.Email,
		&lead.GoogleRating, &lead.ReviewCount, &lead.HasWebsite, &lead.WebsiteURL, &lead.WebsiteQuality,
		&lead.LeadScore, &lead.Status, &lead.CallOutcome, &callback,
		&tags, &lead.ClaimedBy, &lead.MapsURL,
		&lead.Version, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}
	if callback.Valid {
		t := callback.Time
		lead.CallbackDate = &t
	}
	if tags != "" && tags != "[]" {
		if err := json.Unmarshal([]byte(tags), &lead.Tags); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal tags")
		}
	}
	return &lead, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
