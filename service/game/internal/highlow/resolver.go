package highlow

import (
	"HighLow/service/game/internal/cards"
	"github.com/shopspring/decimal"
)

// Moltiplicatori di vincita.
const (
	HigherLowerMultiplier = 2
	EqualMultiplier       = 10
)

// MoneyScale e' il numero di cifre frazionarie degli importi.
const MoneyScale = 2

// Outcome e' il risultato di un round risolto.
type Outcome struct {
	PreviousCard cards.Card
	NewCard      cards.Card
	Guess        Guess
	BetAmount    decimal.Decimal
	IsWin        bool
	WinAmount    decimal.Decimal
}

// Resolve confronta i ranghi e calcola la vincita. Il seme non conta.
func Resolve(current, next cards.Card, guess Guess, bet decimal.Decimal) Outcome {
	win := IsWin(current.Rank(), next.Rank(), guess)
	amount := decimal.Zero
	if win {
		amount = bet.Mul(Multiplier(guess)).Round(MoneyScale)
	}
	return Outcome{
		PreviousCard: current,
		NewCard:      next,
		Guess:        guess,
		BetAmount:    bet,
		IsWin:        win,
		WinAmount:    amount,
	}
}

// IsWin e' funzione pura dei due ranghi e della previsione.
func IsWin(currentRank, newRank int, guess Guess) bool {
	switch guess {
	case GuessHigher:
		return newRank > currentRank
	case GuessLower:
		return newRank < currentRank
	case GuessEqual:
		return newRank == currentRank
	default:
		return false
	}
}

// Multiplier ritorna il moltiplicatore applicato alla puntata in caso di vincita.
func Multiplier(guess Guess) decimal.Decimal {
	if guess == GuessEqual {
		return decimal.NewFromInt(EqualMultiplier)
	}
	return decimal.NewFromInt(HigherLowerMultiplier)
}

// ValidBet riporta se la puntata e' positiva e con al massimo MoneyScale decimali.
func ValidBet(bet decimal.Decimal) bool {
	return bet.IsPositive() && bet.Equal(bet.Truncate(MoneyScale))
}
