package highlow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"HighLow/service/game/internal/cards"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// runStoreContract esercita il Persistence Gateway tramite il Service:
// lo stesso comportamento e' richiesto a memoria, Postgres e Redis.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing session", func(t *testing.T) {
		service := NewService(discardLogger(), store, cards.NewCryptoGenerator(), nil)
		id := uuid.New()
		if _, err := store.GetSession(ctx, id); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("GetSession: expected ErrSessionNotFound, got %v", err)
		}
		if _, err := store.ListRounds(ctx, id); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("ListRounds: expected ErrSessionNotFound, got %v", err)
		}
		if _, err := store.Snapshot(ctx, id); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Snapshot: expected ErrSessionNotFound, got %v", err)
		}
		if _, err := service.StartRound(ctx, id, decimal.NewFromInt(1), GuessHigher); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("StartRound: expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		deck := newScriptedDeck(mustCard(t, 7, cards.Hearts), mustCard(t, 10, cards.Clubs))
		service := NewService(discardLogger(), store, deck, nil)

		session, err := service.StartSession(ctx, uuid.New())
		if err != nil {
			t.Fatalf("StartSession: %v", err)
		}
		loaded, err := store.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if loaded.PlayerID != session.PlayerID || loaded.StartCard != session.StartCard || loaded.Status != StatusActive {
			t.Fatalf("unexpected session: %+v", loaded)
		}

		round, err := service.StartRound(ctx, session.ID, decimal.RequireFromString("2.50"), GuessHigher)
		if err != nil {
			t.Fatalf("StartRound: %v", err)
		}
		rounds, err := store.ListRounds(ctx, session.ID)
		if err != nil {
			t.Fatalf("ListRounds: %v", err)
		}
		if len(rounds) != 1 {
			t.Fatalf("expected 1 round, got %d", len(rounds))
		}
		got := rounds[0]
		if got.ID != round.ID || got.Number != 1 || got.Guess != GuessHigher || !got.IsWin {
			t.Fatalf("unexpected stored round: %+v", got)
		}
		if !got.BetAmount.Equal(decimal.RequireFromString("2.50")) || !got.WinAmount.Equal(decimal.NewFromInt(5)) {
			t.Fatalf("unexpected amounts: bet=%s win=%s", got.BetAmount, got.WinAmount)
		}
		if got.PreviousCard != mustCard(t, 7, cards.Hearts) || got.NewCard != mustCard(t, 10, cards.Clubs) {
			t.Fatalf("unexpected cards: %s -> %s", got.PreviousCard, got.NewCard)
		}

		if _, err := service.TimeoutSession(ctx, session.ID); err != nil {
			t.Fatalf("TimeoutSession: %v", err)
		}
		if _, err := service.EndSession(ctx, session.ID); !errors.Is(err, ErrSessionNotActive) {
			t.Fatalf("EndSession after timeout: expected ErrSessionNotActive, got %v", err)
		}
		loaded, err = store.GetSession(ctx, session.ID)
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if loaded.Status != StatusTimeout || loaded.CurrentCard != mustCard(t, 10, cards.Clubs) {
			t.Fatalf("unexpected final session: %+v", loaded)
		}
	})

	t.Run("snapshot", func(t *testing.T) {
		deck := newScriptedDeck(mustCard(t, 3, cards.Diamonds), mustCard(t, 3, cards.Clubs), mustCard(t, 12, cards.Spades))
		service := NewService(discardLogger(), store, deck, nil)

		session, err := service.StartSession(ctx, uuid.New())
		if err != nil {
			t.Fatalf("StartSession: %v", err)
		}
		snap, err := store.Snapshot(ctx, session.ID)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.RoundCount != 0 || snap.CurrentCard != mustCard(t, 3, cards.Diamonds) {
			t.Fatalf("unexpected snapshot before rounds: %+v", snap)
		}

		for i := 0; i < 2; i++ {
			if _, err := service.StartRound(ctx, session.ID, decimal.NewFromInt(1), GuessEqual); err != nil {
				t.Fatalf("StartRound: %v", err)
			}
		}
		snap, err = store.Snapshot(ctx, session.ID)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.RoundCount != 2 || snap.CurrentCard != mustCard(t, 12, cards.Spades) || snap.PlayerID != session.PlayerID {
			t.Fatalf("unexpected snapshot after rounds: %+v", snap)
		}
	})

	t.Run("concurrent rounds", func(t *testing.T) {
		service := NewService(discardLogger(), store, cards.NewCryptoGenerator(), nil)
		session, err := service.StartSession(ctx, uuid.New())
		if err != nil {
			t.Fatalf("StartSession: %v", err)
		}

		const n = 16
		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := service.StartRound(ctx, session.ID, decimal.NewFromInt(1), GuessLower)
				if err != nil {
					// Solo lo store ottimistico puo' arrendersi dopo i retry.
					if !errors.Is(err, ErrConcurrentUpdate) {
						t.Errorf("StartRound: %v", err)
					}
					return
				}
				mu.Lock()
				ok++
				mu.Unlock()
			}()
		}
		wg.Wait()

		assertChained(t, service, session.ID, ok)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}
