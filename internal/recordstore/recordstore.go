package recordstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/patent-research/internal/patentanalysis"
	"github.com/joelkehle/patent-research/internal/patentdoc"
)

var ErrNotFound = errors.New("not found")

// Store caches fetched patent records and their analyses in SQLite so repeat
// lookups skip the network and the model call. Rows are keyed by canonical
// patent identifier and replaced wholesale on refresh.
type Store struct {
	db    *sqlx.DB
	mu    sync.Mutex
	clock func() time.Time
}

// StoredRecord is a cached patent record plus the time it was fetched.
type StoredRecord struct {
	patentdoc.Record
	FetchedAt time.Time `json:"fetched_at"`
}

// StoredAnalysis is a cached analysis plus the time it was produced.
type StoredAnalysis struct {
	patentanalysis.Record
	AnalyzedAt time.Time `json:"analyzed_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS patent_records (
	patent_id         TEXT PRIMARY KEY,
	title             TEXT NOT NULL DEFAULT '',
	title_non_english INTEGER NOT NULL DEFAULT 0,
	abstract          TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	company           TEXT,
	claims            TEXT NOT NULL DEFAULT '',
	inventors         TEXT NOT NULL DEFAULT '[]',
	filing_date       TEXT NOT NULL DEFAULT '',
	publication_date  TEXT NOT NULL DEFAULT '',
	images            TEXT NOT NULL DEFAULT '[]',
	fetched_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS patent_analyses (
	patent_id   TEXT PRIMARY KEY,
	analysis    TEXT NOT NULL,
	analyzed_at TEXT NOT NULL
);
`

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, clock: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveRecord(rec patentdoc.Record) error {
	if rec.PatentID == "" || rec.PatentID == patentdoc.NotAvailable {
		return fmt.Errorf("record has no patent id")
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO patent_records (patent_id, title, title_non_english, abstract, description,
		company, claims, inventors, filing_date, publication_date, images, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PatentID,
		rec.Title,
		boolToInt(rec.TitleNonEnglish),
		rec.Abstract,
		rec.Description,
		nullableString(rec.Company),
		rec.Claims,
		marshalJSON(rec.Inventors),
		rec.FilingDate,
		rec.PublicationDate,
		marshalJSON(rec.Images),
		timeToString(s.clock()),
	)
	return err
}

func (s *Store) GetRecord(patentID string) (StoredRecord, error) {
	row := s.db.QueryRow(`SELECT patent_id, title, title_non_english, abstract, description,
		company, claims, inventors, filing_date, publication_date, images, fetched_at
		FROM patent_records WHERE patent_id = ?`, patentID)
	return scanRecord(row)
}

// ListRecords returns every cached record, most recently fetched first.
func (s *Store) ListRecords() ([]StoredRecord, error) {
	rows, err := s.db.Query(`SELECT patent_id, title, title_non_english, abstract, description,
		company, claims, inventors, filing_date, publication_date, images, fetched_at
		FROM patent_records ORDER BY fetched_at DESC, patent_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRecord removes a record and any analysis cached for it.
func (s *Store) DeleteRecord(patentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM patent_records WHERE patent_id = ?`, patentID)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM patent_analyses WHERE patent_id = ?`, patentID); err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SaveAnalysis(patentID string, analysis patentanalysis.Record) error {
	if patentID == "" {
		return fmt.Errorf("analysis has no patent id")
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO patent_analyses (patent_id, analysis, analyzed_at) VALUES (?, ?, ?)`,
		patentID,
		marshalJSON(analysis),
		timeToString(s.clock()),
	)
	return err
}

func (s *Store) GetAnalysis(patentID string) (StoredAnalysis, error) {
	var blob, analyzedAt string
	err := s.db.QueryRow(`SELECT analysis, analyzed_at FROM patent_analyses WHERE patent_id = ?`, patentID).
		Scan(&blob, &analyzedAt)
	if err == sql.ErrNoRows {
		return StoredAnalysis{}, ErrNotFound
	}
	if err != nil {
		return StoredAnalysis{}, err
	}
	var out StoredAnalysis
	if err := json.Unmarshal([]byte(blob), &out.Record); err != nil {
		return StoredAnalysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	out.AnalyzedAt, _ = time.Parse(time.RFC3339Nano, analyzedAt)
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (StoredRecord, error) {
	var rec StoredRecord
	var nonEnglish int
	var company sql.NullString
	var inventorsJSON, imagesJSON, fetchedAt string
	err := row.Scan(&rec.PatentID, &rec.Title, &nonEnglish, &rec.Abstract, &rec.Description,
		&company, &rec.Claims, &inventorsJSON, &rec.FilingDate, &rec.PublicationDate, &imagesJSON, &fetchedAt)
	if err == sql.ErrNoRows {
		return StoredRecord{}, ErrNotFound
	}
	if err != nil {
		return StoredRecord{}, err
	}
	rec.TitleNonEnglish = nonEnglish != 0
	if company.Valid {
		rec.Company = &company.String
	}
	_ = json.Unmarshal([]byte(inventorsJSON), &rec.Inventors)
	_ = json.Unmarshal([]byte(imagesJSON), &rec.Images)
	rec.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)
	return rec, nil
}

func timeToString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
