package snapshots

import "github.com/rs/zerolog"

// RetentionJob prunes the snapshot history down to the configured
// retention. Registered with the scheduler; also safe to run on demand.
type RetentionJob struct {
	store *Store
	keep  int
	log   zerolog.Logger
}

// NewRetentionJob creates a retention job keeping the newest keep
// snapshots.
func NewRetentionJob(store *Store, keep int, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		store: store,
		keep:  keep,
		log:   log.With().Str("job", "snapshot_retention").Logger(),
	}
}

// Name implements scheduler.Job.
func (j *RetentionJob) Name() string {
	return "snapshot-retention"
}

// Run implements scheduler.Job.
func (j *RetentionJob) Run() error {
	removed, err := j.store.PruneToLast(j.keep)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.log.Debug().Int("removed", removed).Msg("Retention pass complete")
	}
	return nil
}
