// Package snapshots persists hierarchy snapshots, the raw input trees
// delivered by the ads-data collaborator. Layout output is never stored:
// the scene is always recomputed from the latest tree, so a restart
// restores the last snapshot and rebuilds everything else.
package snapshots

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adgalaxy/orbital/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNoSnapshots is returned when the store is empty.
var ErrNoSnapshots = errors.New("no snapshots stored")

// Snapshot is one stored hierarchy tree with its ingestion metadata.
type Snapshot struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	NodeCount     int       `json:"nodeCount"`
	CampaignCount int       `json:"campaignCount"`
}

// Store reads and writes snapshots. Trees are msgpack-encoded blobs; the
// queryable metadata lives in columns.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a snapshot store and ensures its schema exists.
func NewStore(db *sql.DB, log zerolog.Logger) (*Store, error) {
	s := &Store{
		db:  db,
		log: log.With().Str("repository", "snapshots").Logger(),
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			node_count INTEGER NOT NULL,
			campaign_count INTEGER NOT NULL,
			tree BLOB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots schema: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshots index: %w", err)
	}
	return nil
}

// Save validates and persists a hierarchy snapshot.
func (s *Store) Save(root *domain.HierarchyNode) (*Snapshot, error) {
	if err := domain.ValidateHierarchy(root); err != nil {
		return nil, err
	}

	encoded, err := msgpack.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to encode hierarchy: %w", err)
	}

	counts := domain.CountByType(root)
	snap := &Snapshot{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now().UTC(),
		NodeCount:     counts[domain.NodeAccount] + counts[domain.NodeCampaign] + counts[domain.NodeAdSet] + counts[domain.NodeCreative],
		CampaignCount: counts[domain.NodeCampaign],
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots (id, created_at, node_count, campaign_count, tree) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.CreatedAt.UnixNano(), snap.NodeCount, snap.CampaignCount, encoded,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.log.Debug().
		Str("snapshot", snap.ID).
		Int("nodes", snap.NodeCount).
		Msg("Snapshot stored")

	return snap, nil
}

// Latest returns the most recently stored tree with its metadata.
func (s *Store) Latest() (*domain.HierarchyNode, *Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, node_count, campaign_count, tree
		 FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`,
	)

	var (
		snap      Snapshot
		createdAt int64
		blob      []byte
	)
	if err := row.Scan(&snap.ID, &createdAt, &snap.NodeCount, &snap.CampaignCount, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNoSnapshots
		}
		return nil, nil, fmt.Errorf("failed to read latest snapshot: %w", err)
	}
	snap.CreatedAt = time.Unix(0, createdAt).UTC()

	var root domain.HierarchyNode
	if err := msgpack.Unmarshal(blob, &root); err != nil {
		return nil, nil, fmt.Errorf("failed to decode snapshot %s: %w", snap.ID, err)
	}

	return &root, &snap, nil
}

// List returns snapshot metadata, newest first.
func (s *Store) List(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, node_count, campaign_count
		 FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap      Snapshot
			createdAt int64
		)
		if err := rows.Scan(&snap.ID, &createdAt, &snap.NodeCount, &snap.CampaignCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snap.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

// PruneToLast deletes everything but the newest keep snapshots and
// returns how many rows were removed.
func (s *Store) PruneToLast(keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	result, err := s.db.Exec(
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Int("kept", keep).Msg("Old snapshots pruned")
	}
	return int(removed), nil
}

// Count returns the number of stored snapshots.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
