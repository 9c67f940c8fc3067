package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-progress-service/internal/domain"
)

// WordStore persists vocabulary in the words table.
type WordStore struct {
	pool *pgxpool.Pool
}

func NewWordStore(pool *pgxpool.Pool) *WordStore {
	return &WordStore{pool: pool}
}

func (s *WordStore) WordsByRank(ctx context.Context, rank int) ([]domain.Word, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, rank, source_text, target_text FROM words WHERE rank=$1 ORDER BY id`, rank)
	if err != nil {
		return nil, fmt.Errorf("query words by rank: %w", err)
	}
	return scanWords(rows)
}

func (s *WordStore) AllWords(ctx context.Context) ([]domain.Word, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, rank, source_text, target_text FROM words ORDER BY rank, id`)
	if err != nil {
		return nil, fmt.Errorf("query all words: %w", err)
	}
	return scanWords(rows)
}

// FiveLetterWords applies domain.FiveLetterWords to every stored word, so
// tab and newline padding is trimmed the same way as in the other stores.
func (s *WordStore) FiveLetterWords(ctx context.Context) ([]domain.Word, error) {
	words, err := s.AllWords(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FiveLetterWords(words), nil
}

func (s *WordStore) CreateWord(ctx context.Context, word domain.Word) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO words (id, rank, source_text, target_text) VALUES ($1, $2, $3, $4)`,
		word.ID, word.Rank, word.SourceText, word.TargetText)
	if isUniqueViolation(err) {
		return domain.New(domain.KindConflict, "word id already used in rank")
	}
	if err != nil {
		return fmt.Errorf("insert word: %w", err)
	}
	return nil
}

func (s *WordStore) DeleteWord(ctx context.Context, wordID string, rank int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM words WHERE id=$1 AND rank=$2`, wordID, rank)
	if err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("word %s in rank %d", wordID, rank)
	}
	return nil
}

func scanWords(rows pgx.Rows) ([]domain.Word, error) {
	defer rows.Close()
	var words []domain.Word
	for rows.Next() {
		var w domain.Word
		if err := rows.Scan(&w.ID, &w.Rank, &w.SourceText, &w.TargetText); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate words: %w", err)
	}
	return words, nil
}
