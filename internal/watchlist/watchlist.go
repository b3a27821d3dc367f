package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Patent classification codes tracked by default. Any other code becomes a
// class of its own the first time a patent is added under it.
const (
	ClassChemistry = "C07"
	ClassMedical   = "A61"
)

const (
	dateLayout    = "2006-01-02"
	maxTitleRunes = 100
	fallbackTitle = "Patent filing"
)

var (
	ErrDuplicate     = errors.New("patent already in watchlist")
	ErrClassNotFound = errors.New("class not found")
	ErrNotFound      = errors.New("patent not found")
)

// TitleResolver looks up a display title for a patent identifier, typically by
// fetching the patent page. Add falls back to a generic title when the
// resolver is nil, fails, or has nothing useful to report.
type TitleResolver func(ctx context.Context, patentID string) (string, error)

// Entry is one tracked patent within a class.
type Entry struct {
	PatentID  string `json:"id"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	AddedDate string `json:"added_date"`
}

// ClassedEntry is an Entry joined with the class it lives under, used for
// flattened cross-class listings.
type ClassedEntry struct {
	Entry
	Class    string `json:"class"`
	Category string `json:"category"`
}

type Config struct {
	// Path is the JSON file backing the watchlist. Empty disables
	// persistence, which keeps the store purely in memory.
	Path string
	// Titles resolves titles for patents added without one.
	Titles TitleResolver
	// Clock stamps added_date fields. Defaults to time.Now.
	Clock func() time.Time
}

// Store keeps per-class patent watchlists and mirrors them to a JSON file
// after every mutation. A missing or unreadable file yields the seeded
// starter lists; the seed is only written out once something changes.
type Store struct {
	path   string
	titles TitleResolver
	clock  func() time.Time

	mu      sync.Mutex
	classes map[string][]Entry
}

func New(cfg Config) (*Store, error) {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	s := &Store{
		path:   cfg.Path,
		titles: cfg.Titles,
		clock:  cfg.Clock,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// CategoryFor maps a classification code to its display category. Unknown
// codes map to themselves.
func CategoryFor(class string) string {
	switch class {
	case ClassChemistry:
		return "Chemistry"
	case ClassMedical:
		return "Medical"
	default:
		return class
	}
}

// Add records a patent under class. When title is empty the configured
// resolver is consulted; a resolver failure is not an Add failure. Titles are
// capped at 100 runes.
func (s *Store) Add(ctx context.Context, class, patentID, title, notes string) (Entry, error) {
	s.mu.Lock()
	for _, e := range s.classes[class] {
		if e.PatentID == patentID {
			s.mu.Unlock()
			return Entry{}, ErrDuplicate
		}
	}
	s.mu.Unlock()

	if title == "" {
		title = s.resolveTitle(ctx, patentID)
	}

	entry := Entry{
		PatentID:  patentID,
		Title:     capTitle(title),
		Notes:     notes,
		AddedDate: s.clock().Format(dateLayout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under lock; the resolver call above ran unlocked.
	for _, e := range s.classes[class] {
		if e.PatentID == patentID {
			return Entry{}, ErrDuplicate
		}
	}
	s.classes[class] = append(s.classes[class], entry)
	if err := s.persistLocked(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Remove deletes a patent from a class. It distinguishes an unknown class
// from a known class that simply does not hold the patent.
func (s *Store) Remove(class, patentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.classes[class]
	if !ok {
		return ErrClassNotFound
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.PatentID != patentID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return ErrNotFound
	}
	s.classes[class] = kept
	return s.persistLocked()
}

// Entries returns the patents tracked under class, oldest first. An unknown
// class yields an empty slice.
func (s *Store) Entries(class string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry{}, s.classes[class]...)
}

// Classes returns the class codes present in the store, seeded classes first.
func (s *Store) Classes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classOrderLocked()
}

// All flattens every class into a single listing, newest additions first.
// Entries added on the same date keep their class grouping.
func (s *Store) All() []ClassedEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ClassedEntry
	for _, class := range s.classOrderLocked() {
		for _, e := range s.classes[class] {
			out = append(out, ClassedEntry{
				Entry:    e,
				Class:    class,
				Category: CategoryFor(class),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AddedDate > out[j].AddedDate
	})
	return out
}

// ImportCSV bulk-adds patents from CSV text shaped as "patentID,notes" per
// line. Lines whose identifier does not start with WO are rejected, as are
// duplicates; both count toward failed.
func (s *Store) ImportCSV(ctx context.Context, class, csvText string) (added, failed int) {
	for _, line := range strings.Split(strings.TrimSpace(csvText), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		patentID := strings.TrimSpace(parts[0])
		notes := ""
		if len(parts) > 1 {
			notes = strings.TrimSpace(parts[1])
		}
		if !strings.HasPrefix(patentID, "WO") {
			failed++
			continue
		}
		if _, err := s.Add(ctx, class, patentID, "", notes); err != nil {
			failed++
			continue
		}
		added++
	}
	return added, failed
}

func (s *Store) resolveTitle(ctx context.Context, patentID string) string {
	if s.titles == nil {
		return fallbackTitle
	}
	title, err := s.titles(ctx, patentID)
	if err != nil || title == "" || title == "Not available" {
		return fallbackTitle
	}
	return title
}

func (s *Store) classOrderLocked() []string {
	var seeded, rest []string
	for class := range s.classes {
		switch class {
		case ClassChemistry, ClassMedical:
			seeded = append(seeded, class)
		default:
			rest = append(rest, class)
		}
	}
	sort.Slice(seeded, func(i, j int) bool {
		// Chemistry before Medical, matching the seed order.
		return seeded[i] == ClassChemistry && seeded[j] != ClassChemistry
	})
	sort.Strings(rest)
	return append(seeded, rest...)
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	blob, err := json.MarshalIndent(s.classes, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		blob, err := os.ReadFile(s.path)
		if err == nil {
			var classes map[string][]Entry
			if jerr := json.Unmarshal(blob, &classes); jerr == nil && classes != nil {
				s.classes = classes
				return nil
			}
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	s.classes = seedClasses(s.clock())
	return nil
}

// seedClasses is the starter watchlist handed out when no saved file exists.
func seedClasses(now time.Time) map[string][]Entry {
	today := now.Format(dateLayout)
	return map[string][]Entry{
		ClassChemistry: {
			{
				PatentID:  "WO2024033280",
				Title:     "Furopyridin and furopyrimidin inhibitors of PI4K",
				AddedDate: today,
			},
			{
				PatentID:  "WO2024033281",
				Title:     "Furo pyrimidine derivatives",
				AddedDate: today,
			},
		},
		ClassMedical: {
			{
				PatentID:  "WO2025128873",
				Title:     "Heterocyclic pyridinone compounds as TREM2 agonists",
				AddedDate: today,
			},
		},
	}
}

func capTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleRunes {
		return title
	}
	return string(runes[:maxTitleRunes])
}
