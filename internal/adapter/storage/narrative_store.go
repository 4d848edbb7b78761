package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"narratrack/internal/domain/narrative"
)

// NarrativeStore implements storage for detected narratives.
type NarrativeStore struct {
	db *pgxpool.Pool
}

// NewNarrativeStore creates a new narrative store.
func NewNarrativeStore(db *pgxpool.Pool) *NarrativeStore {
	return &NarrativeStore{
		db: db,
	}
}

// SaveNarrative upserts a narrative. The original first_detected
// timestamp is preserved on update.
func (s *NarrativeStore) SaveNarrative(ctx context.Context, n narrative.Narrative) error {
	query := `
		INSERT INTO narratives (
			id, topic, description, keywords, entities, score, velocity,
			sentiment, sentiment_delta, mentions, sources,
			first_detected, last_updated, related_narratives
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14
		)
		ON CONFLICT (id) DO UPDATE
		SET
			topic = $2,
			description = $3,
			keywords = $4,
			entities = $5,
			score = $6,
			velocity = $7,
			sentiment = $8,
			sentiment_delta = $9,
			mentions = $10,
			sources = $11,
			last_updated = $13,
			related_narratives = $14
	`

	if n.FirstDetected.IsZero() {
		n.FirstDetected = time.Now()
	}
	if n.LastUpdated.IsZero() {
		n.LastUpdated = time.Now()
	}

	entitiesJSON, err := json.Marshal(n.Entities)
	if err != nil {
		return fmt.Errorf("error marshaling entities: %w", err)
	}

	sourcesJSON, err := json.Marshal(n.Sources)
	if err != nil {
		return fmt.Errorf("error marshaling sources: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		query,
		n.ID,
		n.Topic,
		n.Description,
		n.Keywords,
		entitiesJSON,
		n.Score,
		n.Velocity,
		n.Sentiment,
		n.SentimentDelta,
		n.Mentions,
		sourcesJSON,
		n.FirstDetected,
		n.LastUpdated,
		n.RelatedNarratives,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

const narrativeColumns = `
	id, topic, description, keywords, entities, score, velocity,
	sentiment, sentiment_delta, mentions, sources,
	first_detected, last_updated, related_narratives
`

func scanNarrative(row pgx.Row) (*narrative.Narrative, error) {
	var n narrative.Narrative
	var entitiesJSON, sourcesJSON []byte

	err := row.Scan(
		&n.ID,
		&n.Topic,
		&n.Description,
		&n.Keywords,
		&entitiesJSON,
		&n.Score,
		&n.Velocity,
		&n.Sentiment,
		&n.SentimentDelta,
		&n.Mentions,
		&sourcesJSON,
		&n.FirstDetected,
		&n.LastUpdated,
		&n.RelatedNarratives,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(entitiesJSON, &n.Entities); err != nil {
		return nil, fmt.Errorf("error unmarshaling entities: %w", err)
	}
	if err := json.Unmarshal(sourcesJSON, &n.Sources); err != nil {
		return nil, fmt.Errorf("error unmarshaling sources: %w", err)
	}

	return &n, nil
}

// GetNarrative retrieves a narrative by ID.
func (s *NarrativeStore) GetNarrative(ctx context.Context, id string) (*narrative.Narrative, error) {
	query := `SELECT ` + narrativeColumns + ` FROM narratives WHERE id = $1`

	n, err := scanNarrative(s.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying narrative: %w", err)
	}

	return n, nil
}

// FindNarrativeByTopic retrieves the narrative tracking a topic, if
// one exists. Topic identity is how a narrative keeps its ID across
// scans.
func (s *NarrativeStore) FindNarrativeByTopic(ctx context.Context, topic string) (*narrative.Narrative, error) {
	query := `
		SELECT ` + narrativeColumns + `
		FROM narratives
		WHERE lower(topic) = lower($1)
		ORDER BY last_updated DESC
		LIMIT 1
	`

	n, err := scanNarrative(s.db.QueryRow(ctx, query, topic))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying narrative by topic: %w", err)
	}

	return n, nil
}

// FindNarratives finds narratives matching the filter, highest score
// first.
func (s *NarrativeStore) FindNarratives(ctx context.Context, filter narrative.Filter) ([]narrative.Narrative, error) {
	query := `SELECT ` + narrativeColumns + ` FROM narratives WHERE score >= $1`

	args := []interface{}{filter.MinScore}
	argIndex := 2

	if len(filter.Sources) > 0 {
		query += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM jsonb_array_elements(sources) src WHERE src->>'platform' = ANY($%d))",
			argIndex,
		)
		args = append(args, filter.Sources)
		argIndex++
	}

	if filter.Keyword != "" {
		query += fmt.Sprintf(
			" AND (topic ILIKE '%%' || $%d || '%%' OR $%d = ANY(keywords))",
			argIndex, argIndex,
		)
		args = append(args, filter.Keyword)
		argIndex++
	}

	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND last_updated >= $%d", argIndex)
		args = append(args, filter.Since)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var narratives []narrative.Narrative
	for rows.Next() {
		n, err := scanNarrative(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning narrative: %w", err)
		}
		narratives = append(narratives, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating narratives: %w", err)
	}

	return narratives, nil
}

// PruneNarratives deletes narratives not updated since the cutoff and
// returns how many were removed.
func (s *NarrativeStore) PruneNarratives(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM narratives WHERE last_updated < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("error pruning narratives: %w", err)
	}
	return tag.RowsAffected(), nil
}
