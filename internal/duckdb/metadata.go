package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Truncate(time.Microsecond),
	}, nil
}

// ReplaceSources records the VCF files the stored offsets were built from.
func (s *Store) ReplaceSources(fps []FileFingerprint) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM sources"); err != nil {
		return fmt.Errorf("clear sources: %w", err)
	}
	for _, fp := range fps {
		if _, err := tx.Exec("INSERT INTO sources VALUES (?, ?, ?)", fp.Path, fp.Size, fp.ModTime); err != nil {
			return fmt.Errorf("insert source %s: %w", fp.Path, err)
		}
	}
	return tx.Commit()
}

// Sources returns the recorded VCF files ordered by path.
func (s *Store) Sources() ([]FileFingerprint, error) {
	rows, err := s.db.Query("SELECT path, size, mod_time FROM sources ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var fps []FileFingerprint
	for rows.Next() {
		var fp FileFingerprint
		if err := rows.Scan(&fp.Path, &fp.Size, &fp.ModTime); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		fp.ModTime = fp.ModTime.UTC()
		fps = append(fps, fp)
	}
	return fps, rows.Err()
}

// SourcesCurrent reports whether the recorded sources match fps exactly.
func (s *Store) SourcesCurrent(fps []FileFingerprint) (bool, error) {
	stored, err := s.Sources()
	if err != nil {
		return false, err
	}
	if len(stored) != len(fps) {
		return false, nil
	}
	byPath := make(map[string]FileFingerprint, len(stored))
	for _, fp := range stored {
		byPath[fp.Path] = fp
	}
	for _, fp := range fps {
		got, ok := byPath[fp.Path]
		if !ok || got.Size != fp.Size || !got.ModTime.Equal(fp.ModTime) {
			return false, nil
		}
	}
	return true, nil
}
