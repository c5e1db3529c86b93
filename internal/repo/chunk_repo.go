package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/legalqa/internal/model"
)

type ChunkRepo struct {
	db        *sql.DB
	dimension int
}

func NewChunkRepo(db *sql.DB, dimension int) *ChunkRepo {
	return &ChunkRepo{db: db, dimension: dimension}
}

// InsertBatch stores all chunks in one transaction; either every row lands or none.
func (r *ChunkRepo) InsertBatch(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for i, chunk := range chunks {
		if r.dimension > 0 && len(chunk.Embedding) != r.dimension {
			return fmt.Errorf("chunk %d: embedding dimension %d, want %d", i, len(chunk.Embedding), r.dimension)
		}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	const query = `
		INSERT INTO legal_chunks (user_id, document_id, chunk_text, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, chunk := range chunks {
		row := stmt.QueryRowContext(ctx,
			chunk.UserID,
			chunk.DocumentID,
			chunk.Text,
			pgvector.NewVector(chunk.Embedding),
			chunk.Ctime,
		)
		if err := row.Scan(&chunk.ID); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

// Search returns up to limit chunks of one document ordered by cosine distance
// to the query vector. Rows of other users or documents are never considered.
func (r *ChunkRepo) Search(ctx context.Context, userID, documentID string, queryVec []float32, limit int) ([]model.ScoredChunk, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	const query = `
		SELECT id, user_id, document_id, chunk_text, ctime, embedding <=> $1 AS distance
		FROM legal_chunks
		WHERE user_id = $2 AND document_id = $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(queryVec), userID, documentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ScoredChunk
	for rows.Next() {
		var item model.ScoredChunk
		if err := rows.Scan(&item.ID, &item.UserID, &item.DocumentID, &item.Text, &item.Ctime, &item.Distance); err != nil {
			return nil, err
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (r *ChunkRepo) DeleteByDocument(ctx context.Context, userID, documentID string) (int64, error) {
	const query = `DELETE FROM legal_chunks WHERE user_id = $1 AND document_id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, documentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ChunkRepo) DeleteDocuments(ctx context.Context, userID string, documentIDs []string) (int64, error) {
	if len(documentIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM legal_chunks WHERE user_id = ? AND document_id IN (?)`, userID, documentIDs)
	if err != nil {
		return 0, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ChunkRepo) Stat(ctx context.Context, userID, documentID string) (*model.DocumentStat, error) {
	const query = `
		SELECT COUNT(*), COALESCE(MAX(ctime), 0)
		FROM legal_chunks
		WHERE user_id = $1 AND document_id = $2
	`
	stat := &model.DocumentStat{DocumentID: documentID, UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, userID, documentID).Scan(&stat.ChunkCount, &stat.Ctime); err != nil {
		return nil, err
	}
	return stat, nil
}

// ListExpiredDocuments returns documents whose newest chunk is older than cutoff.
func (r *ChunkRepo) ListExpiredDocuments(ctx context.Context, cutoff int64, limit int) ([]model.DocumentStat, error) {
	const query = `
		SELECT user_id, document_id, COUNT(*), MAX(ctime)
		FROM legal_chunks
		GROUP BY user_id, document_id
		HAVING MAX(ctime) < $1
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []model.DocumentStat
	for rows.Next() {
		var item model.DocumentStat
		if err := rows.Scan(&item.UserID, &item.DocumentID, &item.ChunkCount, &item.Ctime); err != nil {
			return nil, err
		}
		stats = append(stats, item)
	}
	return stats, rows.Err()
}
