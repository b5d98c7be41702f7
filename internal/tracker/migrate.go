package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
)

const legacyFileName = "processed_articles.json"

// legacyRecord mirrors one entry of the flat-file tracker that
// predates the SQLite store.
type legacyRecord struct {
	Title         string  `json:"title"`
	Source        string  `json:"source"`
	URL           string  `json:"url"`
	ProcessedDate string  `json:"processed_date"`
	Summary       *string `json:"summary"`
}

// importLegacy copies every record of the old JSON tracker into the
// table, skipping identities that already exist, then renames the file
// so the import never re-runs. Best-effort: any failure is logged and
// the file is left in place for a retry on next startup.
func (s *Store) importLegacy(storagePath string) {
	legacyPath := filepath.Join(storagePath, legacyFileName)
	if _, err := os.Stat(legacyPath); err != nil {
		return
	}

	imported, err := s.importLegacyFile(legacyPath)
	if err != nil {
		s.logError("legacy tracker import", err)
		return
	}

	if err := os.Rename(legacyPath, legacyPath+".imported"); err != nil {
		s.logError("rename legacy tracker", err)
		return
	}

	if s.logger != nil {
		s.logger.Info("imported legacy tracker", "records", imported)
	}
}

func (s *Store) importLegacyFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read legacy tracker: %w", err)
	}

	records := map[string]legacyRecord{}
	if err := json.Unmarshal(raw, &records); err != nil {
		return 0, fmt.Errorf("parse legacy tracker: %w", err)
	}

	imported := 0
	for id, record := range records {
		processedAt := record.ProcessedDate
		if processedAt == "" {
			processedAt = s.now().UTC().Format(timeLayout)
		}

		var summary any
		if record.Summary != nil {
			summary = *record.Summary
		}

		// Existing rows win over legacy ones.
		query, args, err := sq.Insert(tableName).
			Columns("identity", "title", "source", "url", "summary", "processed_at", "created_at").
			Values(id, record.Title, record.Source, record.URL, summary, processedAt, processedAt).
			Suffix("ON CONFLICT(identity) DO NOTHING").
			ToSql()
		if err != nil {
			return imported, fmt.Errorf("build legacy insert: %w", err)
		}

		if _, err := s.db.Exec(query, args...); err != nil {
			return imported, fmt.Errorf("insert legacy record %q: %w", id, err)
		}
		imported++
	}

	return imported, nil
}
