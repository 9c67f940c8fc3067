package memory

import (
	"context"
	"errors"
	"testing"

	"vocab-progress-service/internal/domain"
)

func TestWordStoreCreateDelete(t *testing.T) {
	ctx := context.Background()
	store := NewWordStore()

	word := domain.Word{ID: "w1", Rank: 2, SourceText: "chair", TargetText: "silla"}
	if err := store.CreateWord(ctx, word); err != nil {
		t.Fatalf("create word: %v", err)
	}
	if err := store.CreateWord(ctx, word); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on duplicate id, got %v", err)
	}
	// the same id may live in another rank bucket
	if err := store.CreateWord(ctx, domain.Word{ID: "w1", Rank: 3, SourceText: "table", TargetText: "mesa"}); err != nil {
		t.Fatalf("create word in other rank: %v", err)
	}

	words, _ := store.WordsByRank(ctx, 2)
	if len(words) != 1 || words[0].SourceText != "chair" {
		t.Fatalf("unexpected rank 2 words %+v", words)
	}

	if err := store.DeleteWord(ctx, "w1", 2); err != nil {
		t.Fatalf("delete word: %v", err)
	}
	if err := store.DeleteWord(ctx, "w1", 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	all, _ := store.AllWords(ctx)
	if len(all) != 1 || all[0].Rank != 3 {
		t.Fatalf("unexpected remaining words %+v", all)
	}
}

func TestWordStoreFiveLetterWords(t *testing.T) {
	store := NewWordStore(
		domain.Word{ID: "a", Rank: 1, SourceText: "HELLO", TargetText: "hola"},
		domain.Word{ID: "b", Rank: 1, SourceText: "book", TargetText: "libro"},
		domain.Word{ID: "c", Rank: 4, SourceText: "chair", TargetText: "silla"},
	)
	words, err := store.FiveLetterWords(context.Background())
	if err != nil {
		t.Fatalf("five letter words: %v", err)
	}
	if len(words) != 2 || words[0].ID != "a" || words[1].ID != "c" {
		t.Fatalf("unexpected five letter words %+v", words)
	}
}
