package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"glucotrack/internal/adapter/repotest"
	"glucotrack/internal/domain"
)

func TestRepositories(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (repotest.Store, domain.SessionRepository) {
		db := New()
		return db, db.NewSessionRepo()
	})
}

func TestWeightExample(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	_, _ = db.AddWeight(ctx, userID, "2024-01-10", 80.0, time.Now())
	_, _ = db.AddWeight(ctx, userID, "2024-01-05", 81.0, time.Now())

	events, err := db.ListWeights(ctx, userID)
	if err != nil {
		t.Fatalf("ListWeights: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(events))
	}
	if events[0].Day != "2024-01-10" || events[1].Day != "2024-01-05" {
		t.Errorf("expected [2024-01-10 2024-01-05], got [%s %s]", events[0].Day, events[1].Day)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, _ := db.Create(ctx, domain.User{Email: "a@example.com"}, domain.Profile{Name: "A"})
	p, _ := db.GetProfile(ctx, u.ID)
	p.Name = "mutated"

	again, _ := db.GetProfile(ctx, u.ID)
	if again.Name != "A" {
		t.Errorf("stored profile changed through returned pointer: %q", again.Name)
	}
}

func TestConcurrentAdds(t *testing.T) {
	db := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = db.AddWeight(ctx, 1, "2024-01-10", 80, time.Now())
		}()
	}
	wg.Wait()

	list, _ := db.ListWeights(ctx, 1)
	seen := make(map[int64]bool)
	for _, w := range list {
		if seen[w.ID] {
			t.Fatalf("duplicate id %d", w.ID)
		}
		seen[w.ID] = true
	}
	if len(list) != 50 {
		t.Errorf("expected 50 entries, got %d", len(list))
	}
}
