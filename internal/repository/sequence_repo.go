package repository

import (
	"context"

	"github.com/roster-import-api/internal/database"
)

// sequenceRepo is the concrete implementation of SequenceRepository
type sequenceRepo struct {
	run runner
}

// NewSequenceRepo creates a new identifier sequence repository
func NewSequenceRepo(db *database.DB) SequenceRepository {
	return &sequenceRepo{run: db}
}

// WithTx rebinds the repository to a batch transaction
func (r *sequenceRepo) WithTx(tx Tx) SequenceRepository {
	return &sequenceRepo{run: runnerFromTx(tx, r.run)}
}

// RecordAllocation advances the advisory high-water mark for a role. The
// tracker only ever moves forward; allocation never trusts it for
// uniqueness, so a lagging value is harmless.
func (r *sequenceRepo) RecordAllocation(ctx context.Context, role string, num int) error {
	query := `
		INSERT INTO id_sequences (role, last_num)
		VALUES ($1, $2)
		ON CONFLICT (role) DO UPDATE
		SET last_num = GREATEST(id_sequences.last_num, EXCLUDED.last_num),
		    updated_at = NOW()
	`
	_, err := r.run.ExecContext(ctx, query, role, num)
	return err
}
