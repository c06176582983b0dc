package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/flatbind/internal/ir"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Run is one recorded generation.
type Run struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Library     string `json:"library"`
	Version     string `json:"version"`
	Target      string `json:"target"`
	Fingerprint string `json:"fingerprint"`
	IRVersion   string `json:"ir_version"`
	Entries     int    `json:"entries"`
}

// Row is one identifier of a recorded run.
type Row struct {
	RunID      string       `json:"run_id"`
	Seq        int64        `json:"seq"`
	Library    string       `json:"library"`
	Position   int          `json:"position"`
	Identifier string       `json:"identifier"`
	DeclID     string       `json:"decl_id"`
	Kind       ir.EntryKind `json:"kind"`
	Path       string       `json:"path"`
	DeclKind   string       `json:"decl_kind"`
	Version    string       `json:"version"`
	Detail     string       `json:"detail"` // canonical JSON
}

type rowScanner interface {
	Scan(dest ...any) error
}

const selectRun = `
	SELECT r.id, r.seq, r.library, r.version, r.target, r.fingerprint, r.ir_version, COUNT(e.identifier)
	FROM runs r
	LEFT JOIN entries e ON e.run_id = r.id
`

const selectRow = `
	SELECT e.run_id, r.seq, r.library, e.position, e.identifier, e.decl_id, e.kind, e.path, e.decl_kind, e.version, e.detail
	FROM entries e
	JOIN runs r ON r.id = e.run_id
`

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Seq, &r.Library, &r.Version, &r.Target, &r.Fingerprint, &r.IRVersion, &r.Entries)
	return r, err
}

func scanRow(row rowScanner) (Row, error) {
	var r Row
	var kind string
	err := row.Scan(&r.RunID, &r.Seq, &r.Library, &r.Position, &r.Identifier, &r.DeclID, &kind, &r.Path, &r.DeclKind, &r.Version, &r.Detail)
	if err != nil {
		return Row{}, fmt.Errorf("scan entry: %w", err)
	}
	r.Kind = ir.EntryKind(kind)
	return r, nil
}

// ReadRun returns the run with the given id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, selectRun+`
		WHERE r.id = ?
		GROUP BY r.id
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recent run for a library.
func (s *Store) LatestRun(ctx context.Context, library string) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, selectRun+`
		WHERE r.library = ?
		GROUP BY r.id
		ORDER BY r.seq DESC
		LIMIT 1
	`, library))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("library %s: %w", library, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// ListRuns returns every run, oldest first.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+`
		GROUP BY r.id
		ORDER BY r.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadMapping returns the canonical mapping table stored for a run.
func (s *Store) ReadMapping(ctx context.Context, runID string) ([]byte, error) {
	var mapping string
	err := s.db.QueryRowContext(ctx, `SELECT mapping FROM runs WHERE id = ?`, runID).Scan(&mapping)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return []byte(mapping), nil
}

// ReadEntries returns a run's rows in emission order.
func (s *Store) ReadEntries(ctx context.Context, runID string) ([]Row, error) {
	return s.queryRows(ctx, selectRow+`
		WHERE e.run_id = ?
		ORDER BY e.position ASC
	`, runID)
}

// Lookup returns every recorded row for an identifier, oldest run first.
// Returns an empty slice (not nil) if the identifier was never emitted.
func (s *Store) Lookup(ctx context.Context, identifier string) ([]Row, error) {
	return s.queryRows(ctx, selectRow+`
		WHERE e.identifier = ?
		ORDER BY r.seq ASC, e.position ASC
	`, identifier)
}

// LookupDecl returns every row produced by a declaration id, oldest run
// first. Overloads share a declaration id, so one run may return several.
func (s *Store) LookupDecl(ctx context.Context, declID string) ([]Row, error) {
	return s.queryRows(ctx, selectRow+`
		WHERE e.decl_id = ?
		ORDER BY r.seq ASC, e.position ASC
	`, declID)
}

func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}
