package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-mgsync/internal/offset"
	"github.com/inodb/vibe-mgsync/internal/project"
	"github.com/inodb/vibe-mgsync/internal/synchronize"
)

// ErrTrackNotFound is returned when no synchronized track matches a query.
var ErrTrackNotFound = errors.New("track not stored")

// ListKind names which offset list a row belongs to.
type ListKind string

const (
	KindMeta           ListKind = "meta"
	KindToReference    ListKind = "to_reference"
	KindReference      ListKind = "reference"
	KindReferenceTrack ListKind = "reference_track"
)

// referenceGenome is the genome column value for per-chromosome lists.
const referenceGenome = "."

// OffsetRow is one stored offset.
type OffsetRow struct {
	Kind       ListKind
	Chromosome string
	Genome     string
	Allele     string
	Offset     offset.Offset
}

// trackID names one stored track; per-chromosome lists use referenceGenome
// for genome and allele.
type trackID struct {
	chrom, genome, allele string
}

// WriteResult replaces all stored offsets with those of res. The previous
// content is kept if any step fails.
func (s *Store) WriteResult(res *synchronize.Result) error {
	var rows []OffsetRow
	tracks := make(map[trackID]bool)
	add := func(kind ListKind, chrom, genome, allele string, l offset.List) {
		tracks[trackID{chrom, genome, allele}] = true
		for _, o := range l {
			rows = append(rows, OffsetRow{Kind: kind, Chromosome: chrom, Genome: genome, Allele: allele, Offset: o})
		}
	}
	for chrom, l := range res.Reference {
		add(KindReference, chrom, referenceGenome, referenceGenome, l)
	}
	for chrom, l := range res.ReferenceTrack {
		add(KindReferenceTrack, chrom, referenceGenome, referenceGenome, l)
	}
	for k, l := range res.Meta {
		add(KindMeta, k.Chromosome, k.Genome, k.Allele.String(), l)
	}
	for k, l := range res.ToReference {
		add(KindToReference, k.Chromosome, k.Genome, k.Allele.String(), l)
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	// The appender joins the transaction of the connection it writes through.
	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := replaceOffsets(ctx, conn, tracks, rows); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func replaceOffsets(ctx context.Context, conn *sql.Conn, tracks map[trackID]bool, rows []OffsetRow) error {
	if _, err := conn.ExecContext(ctx, "DELETE FROM offsets"); err != nil {
		return fmt.Errorf("clear offsets: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "DELETE FROM tracks"); err != nil {
		return fmt.Errorf("clear tracks: %w", err)
	}
	for id := range tracks {
		if _, err := conn.ExecContext(ctx, "INSERT INTO tracks VALUES (?, ?, ?)", id.chrom, id.genome, id.allele); err != nil {
			return fmt.Errorf("insert track %s:%s:%s: %w", id.chrom, id.genome, id.allele, err)
		}
	}
	return appendOffsets(conn, rows)
}

// appendOffsets batch-inserts rows using the Appender API. Rows of one list
// must be given in list order.
func appendOffsets(conn *sql.Conn, rows []OffsetRow) error {
	if len(rows) == 0 {
		return nil
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "offsets")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	type listID struct {
		kind                  ListKind
		chrom, genome, allele string
	}
	next := make(map[listID]int32)
	for _, r := range rows {
		id := listID{r.Kind, r.Chromosome, r.Genome, r.Allele}
		idx := next[id]
		next[id] = idx + 1
		if err := appender.AppendRow(
			string(r.Kind), r.Chromosome, r.Genome, r.Allele,
			idx, r.Offset.Position, r.Offset.Value,
		); err != nil {
			appender.Close()
			return fmt.Errorf("append offset: %w", err)
		}
	}

	// Close flushes the remaining rows.
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush offsets: %w", err)
	}
	return nil
}

// hasTrack reports whether a track was stored, including tracks whose
// lists are empty.
func (s *Store) hasTrack(chrom, genome, allele string) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE chrom=? AND genome=? AND allele=?",
		chrom, genome, allele).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query tracks: %w", err)
	}
	return n > 0, nil
}

// LookupList returns one stored list in order. Use project.TrackKey fields
// for track lists; genome and allele are ignored for per-chromosome kinds.
func (s *Store) LookupList(kind ListKind, chrom, genome, allele string) (offset.List, error) {
	if kind == KindReference || kind == KindReferenceTrack {
		genome, allele = referenceGenome, referenceGenome
	}

	rows, err := s.db.Query(`SELECT position, value
		FROM offsets
		WHERE list_kind=? AND chrom=? AND genome=? AND allele=?
		ORDER BY idx`,
		string(kind), chrom, genome, allele)
	if err != nil {
		return nil, fmt.Errorf("query offsets: %w", err)
	}
	defer rows.Close()

	var l offset.List
	for rows.Next() {
		var o offset.Offset
		if err := rows.Scan(&o.Position, &o.Value); err != nil {
			return nil, fmt.Errorf("scan offset: %w", err)
		}
		l = append(l, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offsets: %w", err)
	}
	return l, nil
}

// Translator rebuilds the translator of a track from stored lists.
func (s *Store) Translator(key project.TrackKey) (*offset.Translator, error) {
	ok, err := s.hasTrack(key.Chromosome, key.Genome, key.Allele.String())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, key)
	}
	toRef, err := s.LookupList(KindToReference, key.Chromosome, key.Genome, key.Allele.String())
	if err != nil {
		return nil, err
	}
	meta, err := s.LookupList(KindMeta, key.Chromosome, key.Genome, key.Allele.String())
	if err != nil {
		return nil, err
	}
	return offset.NewTranslator(toRef, meta), nil
}

// ReferenceTranslator rebuilds the reference genome translator of chrom.
func (s *Store) ReferenceTranslator(chrom string) (*offset.Translator, error) {
	ok, err := s.hasTrack(chrom, referenceGenome, referenceGenome)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: chromosome %s", ErrTrackNotFound, chrom)
	}
	meta, err := s.LookupList(KindReferenceTrack, chrom, "", "")
	if err != nil {
		return nil, err
	}
	return offset.NewTranslator(nil, meta), nil
}

// CountOffsets returns the number of stored offsets of a kind.
func (s *Store) CountOffsets(kind ListKind) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM offsets WHERE list_kind=?", string(kind)).Scan(&n)
	return n, err
}
