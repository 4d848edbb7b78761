package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"narratrack/internal/domain/document"
	"narratrack/internal/domain/narrative"
)

// DocumentStore persists documents, their analysis signals and the
// per-entity mention rows the narrative detector aggregates over.
type DocumentStore struct {
	db *pgxpool.Pool
}

// NewDocumentStore creates a new document store.
func NewDocumentStore(db *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{
		db: db,
	}
}

// SaveDocument upserts a document keyed by its deterministic ID.
func (s *DocumentStore) SaveDocument(ctx context.Context, doc document.Document) error {
	query := `
		INSERT INTO documents (
			id, source, source_id, title, body, author, url, tags,
			score, comment_count, published_at, fetched_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12
		)
		ON CONFLICT (id) DO UPDATE
		SET
			title = $4,
			body = $5,
			tags = $8,
			score = $9,
			comment_count = $10,
			fetched_at = $12
	`

	if doc.FetchedAt.IsZero() {
		doc.FetchedAt = time.Now()
	}

	_, err := s.db.Exec(
		ctx,
		query,
		doc.ID,
		doc.Source,
		doc.SourceID,
		doc.Title,
		doc.Body,
		doc.Author,
		doc.URL,
		doc.Tags,
		doc.Score,
		doc.CommentCount,
		doc.PublishedAt,
		doc.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving document: %w", err)
	}

	return nil
}

// SaveSignal upserts the analysis signal for a document and replaces
// its entity mention rows.
func (s *DocumentStore) SaveSignal(ctx context.Context, sig document.Signal) error {
	entitiesJSON, err := json.Marshal(sig.Entities)
	if err != nil {
		return fmt.Errorf("error marshaling entities: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	signalQuery := `
		INSERT INTO signals (
			document_id, source, sentiment, engagement, keywords,
			entities, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (document_id) DO UPDATE
		SET
			sentiment = $3,
			engagement = $4,
			keywords = $5,
			entities = $6,
			observed_at = $7
	`

	_, err = tx.Exec(
		ctx,
		signalQuery,
		sig.DocumentID,
		sig.Source,
		sig.Sentiment,
		sig.Engagement,
		sig.Keywords,
		entitiesJSON,
		sig.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving signal: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM entity_mentions WHERE document_id = $1`, sig.DocumentID); err != nil {
		return fmt.Errorf("error clearing entity mentions: %w", err)
	}

	mentionQuery := `
		INSERT INTO entity_mentions (
			document_id, entity, kind, mention_count, source, observed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range sig.Entities {
		if _, err := tx.Exec(ctx, mentionQuery, sig.DocumentID, e.Text, e.Kind, e.Count, sig.Source, sig.ObservedAt); err != nil {
			return fmt.Errorf("error saving entity mention: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing signal: %w", err)
	}

	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	query := `
		SELECT
			id, source, source_id, title, body, author, url, tags,
			score, comment_count, published_at, fetched_at
		FROM documents
		WHERE id = $1
	`

	var doc document.Document
	err := s.db.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.Source,
		&doc.SourceID,
		&doc.Title,
		&doc.Body,
		&doc.Author,
		&doc.URL,
		&doc.Tags,
		&doc.Score,
		&doc.CommentCount,
		&doc.PublishedAt,
		&doc.FetchedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying document: %w", err)
	}

	return &doc, nil
}

// FindDocuments finds documents matching the filter, newest first.
func (s *DocumentStore) FindDocuments(ctx context.Context, filter document.Filter) ([]document.Document, error) {
	query := `
		SELECT
			id, source, source_id, title, body, author, url, tags,
			score, comment_count, published_at, fetched_at
		FROM documents
		WHERE 1=1
	`

	args := []interface{}{}
	argIndex := 1

	if filter.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argIndex)
		args = append(args, filter.Source)
		argIndex++
	}

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (title ILIKE '%%' || $%d || '%%' OR body ILIKE '%%' || $%d || '%%')", argIndex, argIndex)
		args = append(args, filter.Query)
		argIndex++
	}

	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND published_at >= $%d", argIndex)
		args = append(args, filter.Since)
		argIndex++
	}

	if !filter.Until.IsZero() {
		query += fmt.Sprintf(" AND published_at <= $%d", argIndex)
		args = append(args, filter.Until)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY published_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var docs []document.Document
	for rows.Next() {
		var doc document.Document
		err := rows.Scan(
			&doc.ID,
			&doc.Source,
			&doc.SourceID,
			&doc.Title,
			&doc.Body,
			&doc.Author,
			&doc.URL,
			&doc.Tags,
			&doc.Score,
			&doc.CommentCount,
			&doc.PublishedAt,
			&doc.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// EntityActivity aggregates entity mentions over the window ending at
// now, alongside the window before it for velocity computation. Only
// entities with at least minMentions current-window mentions are
// returned.
func (s *DocumentStore) EntityActivity(ctx context.Context, now time.Time, window time.Duration, minMentions int) ([]narrative.EntityActivity, error) {
	windowStart := now.Add(-window)
	prevStart := now.Add(-2 * window)

	query := `
		SELECT
			e.entity,
			max(e.kind) AS kind,
			count(*) FILTER (WHERE e.observed_at >= $2) AS mentions,
			count(*) FILTER (WHERE e.observed_at < $2) AS prev_mentions,
			coalesce(avg(s.sentiment) FILTER (WHERE e.observed_at >= $2), 0) AS sentiment,
			coalesce(avg(s.sentiment) FILTER (WHERE e.observed_at < $2), 0) AS prev_sentiment,
			coalesce(array_agg(DISTINCT e.source) FILTER (WHERE e.observed_at >= $2), '{}') AS sources,
			coalesce(array_agg(DISTINCT e.document_id) FILTER (WHERE e.observed_at >= $2), '{}') AS document_ids
		FROM entity_mentions e
		JOIN signals s ON s.document_id = e.document_id
		WHERE e.observed_at >= $1 AND e.observed_at <= $3
		GROUP BY e.entity
		HAVING count(*) FILTER (WHERE e.observed_at >= $2) >= $4
		ORDER BY mentions DESC
		LIMIT 200
	`

	rows, err := s.db.Query(ctx, query, prevStart, windowStart, now, minMentions)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var activity []narrative.EntityActivity
	for rows.Next() {
		var a narrative.EntityActivity
		err := rows.Scan(
			&a.Entity,
			&a.Kind,
			&a.Mentions,
			&a.PrevMentions,
			&a.Sentiment,
			&a.PrevSentiment,
			&a.Sources,
			&a.DocumentIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning entity activity: %w", err)
		}
		activity = append(activity, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity activity: %w", err)
	}

	return activity, nil
}

// TopKeywords returns the most frequent keywords across the signals of
// the given documents.
func (s *DocumentStore) TopKeywords(ctx context.Context, documentIDs []string, limit int) ([]string, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT kw FROM (
			SELECT unnest(keywords) AS kw, count(*) AS freq
			FROM signals
			WHERE document_id = ANY($1)
			GROUP BY kw
			ORDER BY freq DESC, kw ASC
			LIMIT $2
		) ranked
	`

	rows, err := s.db.Query(ctx, query, documentIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("error scanning keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keywords: %w", err)
	}

	return keywords, nil
}

// DocumentRefs returns narrative source references for the given
// documents, highest engagement first.
func (s *DocumentStore) DocumentRefs(ctx context.Context, documentIDs []string, limit int) ([]narrative.Source, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT source, source_id, url
		FROM documents
		WHERE id = ANY($1)
		ORDER BY score DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, documentIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var refs []narrative.Source
	for rows.Next() {
		var ref narrative.Source
		if err := rows.Scan(&ref.Platform, &ref.ExternalID, &ref.URL); err != nil {
			return nil, fmt.Errorf("error scanning source ref: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source refs: %w", err)
	}

	return refs, nil
}
