package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"puc-service/internal/domain/puc"
	"puc-service/internal/storage"
)

// ErrExhausted reports that every remote target rejected the write. The
// record is not lost: it is retained in the local fallback store, but it is
// not yet visible to verification or reporting. The likely cause is storage
// authorization configuration lagging behind deployment.
var ErrExhausted = errors.New("all storage targets rejected the write; record retained locally")

// FallbackStore is the local durable store of last resort.
type FallbackStore interface {
	Save(ctx context.Context, rec *puc.TestRecord) (localID string, err error)
}

// SubmissionIndex answers whether a submission id already holds an
// authoritative copy somewhere. Used for best-effort idempotent replay of an
// abandoned-then-retried commit.
type SubmissionIndex interface {
	FindLocation(ctx context.Context, submissionID string) (location string, found bool, err error)
}

// CommitResult reports where a record ended up.
type CommitResult struct {
	// Location is the remote target that accepted the write; empty when the
	// record fell back to local storage.
	Location string
	// LocalID is the synthetic fallback key, set only on exhaustion.
	LocalID string
	// Replayed is true when an earlier attempt with the same submission id
	// had already committed and no new write was issued.
	Replayed bool
	Record   *puc.TestRecord
}

// Coordinator turns a finished record into a durable write by walking an
// ordered cascade of storage targets, strictly sequentially, stopping at the
// first success. Writing targets in parallel would break the at-most-one
// authoritative copy guarantee.
type Coordinator struct {
	targets  []storage.Target
	fallback FallbackStore
	index    SubmissionIndex
	log      zerolog.Logger
}

func NewCoordinator(targets []storage.Target, fallback FallbackStore, index SubmissionIndex, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		targets:  targets,
		fallback: fallback,
		index:    index,
		log:      log,
	}
}

// Commit durably saves rec. On success the returned result names the
// accepting target and rec.StorageLocation is set. When every remote target
// rejects the write the record is saved to the local fallback and Commit
// returns ErrExhausted together with a non-nil result carrying the LOCAL id,
// so the caller can tell the operator the data is safe.
func (c *Coordinator) Commit(ctx context.Context, rec *puc.TestRecord) (*CommitResult, error) {
	if rec.SubmissionID == "" {
		return nil, fmt.Errorf("commit: submission id is required")
	}

	// Best effort: a retried submission that already landed somewhere must
	// not produce a second authoritative copy. A failed probe is not fatal;
	// per-target duplicate detection still holds the line.
	if c.index != nil {
		if loc, found, err := c.index.FindLocation(ctx, rec.SubmissionID); err == nil && found {
			rec.StorageLocation = loc
			c.log.Info().
				Str("submission_id", rec.SubmissionID).
				Str("location", loc).
				Msg("submission already committed, replaying result")
			return &CommitResult{Location: loc, Replayed: true, Record: rec}, nil
		}
	}

	for _, target := range c.targets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("commit abandoned: %w", err)
		}

		err := target.Write(ctx, rec)
		if err == nil {
			rec.StorageLocation = target.Name()
			targetAttempts.WithLabelValues(target.Name(), outcomeOK).Inc()
			c.log.Info().
				Str("target", target.Name()).
				Str("submission_id", rec.SubmissionID).
				Str("vehicle", rec.VehicleNumber).
				Msg("record committed")
			return &CommitResult{Location: target.Name(), Record: rec}, nil
		}

		outcome := outcomeTransient
		if errors.Is(err, storage.ErrDenied) {
			outcome = outcomeDenied
		}
		targetAttempts.WithLabelValues(target.Name(), outcome).Inc()
		c.log.Warn().
			Err(err).
			Str("target", target.Name()).
			Str("outcome", outcome).
			Str("submission_id", rec.SubmissionID).
			Msg("storage target rejected write, trying next")
	}

	localID, err := c.fallback.Save(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("commit: all targets failed and local fallback failed: %w", err)
	}
	fallbackSaves.Inc()

	return &CommitResult{LocalID: localID, Record: rec},
		fmt.Errorf("%w (local id %s)", ErrExhausted, localID)
}
