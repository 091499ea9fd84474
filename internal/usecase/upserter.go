package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

type batchWriter interface {
	Mode() importrun.Mode
	UpsertBatch(ctx context.Context, spec table.Spec, rows []table.Row) (importrun.BatchResult, error)
	Checkpoint(ctx context.Context) error
}

// Upserter writes rows in fixed-size batches keyed on a table's unique constraint.
type Upserter struct {
	writer    batchWriter
	batchSize int
	logger    *logging.Logger
}

func NewUpserter(writer batchWriter, batchSize int, logger *logging.Logger) *Upserter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Upserter{writer: writer, batchSize: batchSize, logger: logger.Named("upserter")}
}

// Upsert deduplicates rows on the conflict key and writes them batch by batch.
//
// Rows sharing a key collapse to the last one; the dropped rows count as skipped.
// In incremental mode a constraint violation costs only its batch, which is
// counted as errored, and every successful batch is checkpointed. In atomic
// mode the first violation is returned.
func (u *Upserter) Upsert(ctx context.Context, spec table.Spec, rows []table.Row) (importrun.TableResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Upserter.Upsert")
	defer span.End()

	result := importrun.TableResult{Table: spec.Name}
	if len(rows) == 0 {
		return result, nil
	}
	if err := spec.Validate(); err != nil {
		return result, err
	}
	if u.batchSize <= 0 {
		return result, fmt.Errorf("batch size must be > 0")
	}

	unique, dropped := dedupeRows(spec, rows)
	result.Skipped += dropped
	if dropped > 0 {
		u.logger.DebugContext(ctx, "duplicate rows collapsed", "table", spec.Name, "dropped", dropped)
	}

	incremental := u.writer.Mode() == importrun.ModeIncremental
	for start := 0; start < len(unique); start += u.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		end := min(start+u.batchSize, len(unique))
		batch := unique[start:end]

		written, err := u.writer.UpsertBatch(ctx, spec, batch)
		if err != nil {
			if incremental && importrun.IsConstraintViolation(err) {
				result.Errored += len(batch)
				u.logger.WarnContext(ctx, "batch rejected",
					"table", spec.Name, "offset", start, "rows", len(batch), "error", err)
				continue
			}
			return result, fmt.Errorf("upsert %s rows %d-%d: %w", spec.Name, start, end, err)
		}

		result.Inserted += written.Inserted
		result.Updated += written.Updated
		result.Skipped += written.Unchanged

		if incremental {
			if err := u.writer.Checkpoint(ctx); err != nil {
				return result, fmt.Errorf("checkpoint %s after row %d: %w", spec.Name, end, err)
			}
		}
	}

	return result, nil
}

func dedupeRows(spec table.Spec, rows []table.Row) ([]table.Row, int) {
	positions := make(map[string]int, len(rows))
	out := make([]table.Row, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		key := spec.ConflictKey(row)
		if pos, ok := positions[key]; ok {
			out[pos] = row
			dropped++
			continue
		}
		positions[key] = len(out)
		out = append(out, row)
	}
	return out, dropped
}
