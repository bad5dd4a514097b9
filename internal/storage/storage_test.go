package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rewired-gh/elasticity/internal/game"
	"github.com/rewired-gh/elasticity/internal/models"
)

func mustArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(MemoryPath)
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func round(id string, chatID int64, outcome string, attempts int, best float64, finished time.Time) *models.RoundResult {
	return &models.RoundResult{
		ID:           id,
		ChatID:       chatID,
		ProductID:    "smartphone",
		ScenarioID:   "base",
		OptimalPrice: 1140,
		MaxRevenue:   12293760,
		Attempts:     attempts,
		Outcome:      outcome,
		BestFraction: best,
		FinishedAt:   finished,
	}
}

func TestSessions_GetPut(t *testing.T) {
	s := NewSessions()

	if st := s.Get(1); st.Active {
		t.Fatal("Expected idle state for unknown chat")
	}

	s.Put(1, game.State{ID: "r1", Active: true})
	s.Put(2, game.State{ID: "r2", Active: true})
	if got := s.Get(1); got.ID != "r1" {
		t.Errorf("Expected r1, got %q", got.ID)
	}
	if got := s.Get(2); got.ID != "r2" {
		t.Errorf("Expected r2, got %q", got.ID)
	}
	if s.Active() != 2 {
		t.Errorf("Expected 2 active sessions, got %d", s.Active())
	}

	s.Put(1, game.State{})
	if s.Get(1).Active || s.Active() != 1 {
		t.Error("Expected idle state to remove the session")
	}
}

func TestSessions_Update(t *testing.T) {
	s := NewSessions()
	s.Put(7, game.State{ID: "r", Active: true, Attempts: 1})

	next, err := s.Update(7, func(st game.State) (game.State, error) {
		st.Attempts++
		return st, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if next.Attempts != 2 || s.Get(7).Attempts != 2 {
		t.Errorf("Expected 2 attempts stored, got %d", s.Get(7).Attempts)
	}

	boom := errors.New("boom")
	if _, err := s.Update(7, func(st game.State) (game.State, error) {
		st.Attempts = 99
		return st, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if s.Get(7).Attempts != 2 {
		t.Error("Failed update must not be stored")
	}

	if _, err := s.Update(7, func(st game.State) (game.State, error) {
		st.Active = false
		return st, nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if s.Active() != 0 {
		t.Error("Expected finished round to leave the registry")
	}
}

func TestSessions_ConcurrentChatsAreIsolated(t *testing.T) {
	s := NewSessions()
	const chats, rounds = 8, 100

	for c := int64(0); c < chats; c++ {
		s.Put(c, game.State{Active: true})
	}

	var wg sync.WaitGroup
	for c := int64(0); c < chats; c++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				_, _ = s.Update(chatID, func(st game.State) (game.State, error) {
					st.Attempts++
					return st, nil
				})
			}
		}(c)
	}
	wg.Wait()

	for c := int64(0); c < chats; c++ {
		if got := s.Get(c).Attempts; got != rounds {
			t.Errorf("chat %d: expected %d attempts, got %d", c, rounds, got)
		}
	}
}

func TestArchive_Stats(t *testing.T) {
	a := mustArchive(t)
	ctx := context.Background()
	now := time.Now().Add(-time.Minute)

	rounds := []*models.RoundResult{
		round("a", 1, models.OutcomeWin, 2, 1.0, now),
		round("b", 1, models.OutcomeLoss, 3, 0.9, now.Add(time.Second)),
		round("c", 1, models.OutcomeLoss, 3, 0.5, now.Add(2*time.Second)),
		round("d", 2, models.OutcomeWin, 1, 1.0, now),
	}
	for _, r := range rounds {
		if err := a.RecordRound(ctx, r); err != nil {
			t.Fatalf("RecordRound(%s) failed: %v", r.ID, err)
		}
	}

	st, err := a.Stats(ctx, 1)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Rounds != 3 || st.Wins != 1 || st.Losses != 2 {
		t.Errorf("Unexpected counts: %+v", st)
	}
	if math.Abs(st.AverageAttempts-8.0/3) > 1e-9 {
		t.Errorf("Expected average attempts 2.667, got %f", st.AverageAttempts)
	}
	if math.Abs(st.AverageBestFraction-0.8) > 1e-9 {
		t.Errorf("Expected average best fraction 0.8, got %f", st.AverageBestFraction)
	}
	if math.Abs(st.WinRate()-1.0/3) > 1e-9 {
		t.Errorf("Expected win rate 1/3, got %f", st.WinRate())
	}

	empty, err := a.Stats(ctx, 99)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if empty.Rounds != 0 || empty.WinRate() != 0 || empty.AverageBestFraction != 0 {
		t.Errorf("Expected empty stats, got %+v", empty)
	}
}

func TestArchive_Recent(t *testing.T) {
	a := mustArchive(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	for i := 0; i < 5; i++ {
		r := round(fmt.Sprintf("r%d", i), 3, models.OutcomeLoss, 3, 0.5, base.Add(time.Duration(i)*time.Minute))
		if err := a.RecordRound(ctx, r); err != nil {
			t.Fatalf("RecordRound failed: %v", err)
		}
	}

	recent, err := a.Recent(ctx, 3, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "r4" || recent[1].ID != "r3" {
		t.Fatalf("Expected r4, r3; got %+v", recent)
	}
	if !recent[0].FinishedAt.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("FinishedAt did not survive the archive: %v", recent[0].FinishedAt)
	}
	if recent[0].OptimalPrice != 1140 || recent[0].Outcome != models.OutcomeLoss {
		t.Errorf("Unexpected round: %+v", recent[0])
	}

	none, err := a.Recent(ctx, 3, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("Expected no rounds for limit 0, got %v, %v", none, err)
	}
}

func TestArchive_RejectsInvalidAndDuplicateRounds(t *testing.T) {
	a := mustArchive(t)
	ctx := context.Background()

	bad := round("x", 1, "draw", 1, 0.5, time.Now().Add(-time.Second))
	if err := a.RecordRound(ctx, bad); err == nil {
		t.Error("Expected error for invalid outcome")
	}

	r := round("dup", 1, models.OutcomeWin, 1, 1, time.Now().Add(-time.Second))
	if err := a.RecordRound(ctx, r); err != nil {
		t.Fatalf("RecordRound failed: %v", err)
	}
	if err := a.RecordRound(ctx, r); err == nil {
		t.Error("Expected error for duplicate round ID")
	}
}

func TestOpenArchive_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rounds.db")
	ctx := context.Background()

	a, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	if err := a.RecordRound(ctx, round("f1", 5, models.OutcomeWin, 1, 1, time.Now().Add(-time.Second))); err != nil {
		t.Fatalf("RecordRound failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	st, err := reopened.Stats(ctx, 5)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Rounds != 1 || st.Wins != 1 {
		t.Errorf("Expected archived round to survive reopen, got %+v", st)
	}

	if _, err := OpenArchive("  "); err == nil {
		t.Error("Expected error for empty path")
	}
}
