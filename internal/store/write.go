package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/flatbind/internal/ir"
)

// WriteRun records a generation output and one row per emitted identifier.
// Returns the run and whether a new record was inserted.
//
// Runs are idempotent per (library, target, fingerprint): if an identical
// output was already recorded, the existing run is returned with
// inserted=false and nothing is written.
func (s *Store) WriteRun(ctx context.Context, out *ir.Output) (run Run, inserted bool, err error) {
	fingerprint, err := ir.Fingerprint(out)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: %w", err)
	}
	mapping, details, err := mappingRecords(out)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	existing, err := scanRun(tx.QueryRowContext(ctx, selectRun+`
		WHERE r.library = ? AND r.target = ? AND r.fingerprint = ?
		GROUP BY r.id
	`, out.Library.Name, out.Target, fingerprint))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Run{}, false, fmt.Errorf("write run: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, false, fmt.Errorf("write run: next seq: %w", err)
	}

	run = Run{
		ID:          uuid.NewString(),
		Seq:         seq,
		Library:     out.Library.Name,
		Version:     out.Library.Version.String(),
		Target:      out.Target,
		Fingerprint: fingerprint,
		IRVersion:   ir.IRVersion,
		Entries:     len(out.Entries),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, library, version, target, fingerprint, ir_version, mapping)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Library,
		run.Version,
		run.Target,
		run.Fingerprint,
		run.IRVersion,
		mapping,
	)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries
		(run_id, position, identifier, decl_id, kind, path, decl_kind, version, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, false, fmt.Errorf("write run: prepare entries: %w", err)
	}
	defer stmt.Close()

	for i, e := range out.Entries {
		v := entryVersion(out, e)
		_, err := stmt.ExecContext(ctx,
			run.ID,
			i,
			e.Identifier,
			ir.DeclID(e.Path, v),
			string(e.Kind),
			e.Path,
			entryDeclKind(e),
			v.String(),
			details[i],
		)
		if err != nil {
			return Run{}, false, fmt.Errorf("write run: entry %s: %w", e.Identifier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, false, fmt.Errorf("write run: commit: %w", err)
	}
	return run, true, nil
}

// DeleteRun removes a run and its entries. Deleting an unknown run is not
// an error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
