package memory

import (
	"testing"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewSession("s1", "u1", 1, []domain.Word{{ID: "w1", Rank: 1, SourceText: "dog", TargetText: "perro"}})
	store.Save(session)
	if got, ok := store.Get("s1"); !ok || got != session {
		t.Fatalf("expected session present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}
