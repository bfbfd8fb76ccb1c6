// Package cards implementa il mazzo del gioco HighLow: generazione casuale
// delle carte e confronto dei ranghi.
package cards

import (
	"errors"
	"fmt"
)

// Suit e' uno dei quattro semi. Il valore zero non e' un seme valido.
type Suit uint8

const (
	Hearts Suit = iota + 1
	Diamonds
	Clubs
	Spades
)

// Valori delle figure e dell'asso.
const (
	Ace   = 1
	Jack  = 11
	Queen = 12
	King  = 13
)

// AceRank e' il rango dell'asso: sempre alto.
const AceRank = 14

// ErrInvalidCard indica valore o seme fuori dominio.
var ErrInvalidCard = errors.New("invalid card")

// Card e' una carta scoperta: valore 1-13 e seme.
type Card struct {
	Value uint8
	Suit  Suit
}

// New crea una carta validando valore e seme.
func New(value uint8, suit Suit) (Card, error) {
	if value < Ace || value > King || !suit.Valid() {
		return Card{}, fmt.Errorf("%w: value=%d suit=%d", ErrInvalidCard, value, suit)
	}
	return Card{Value: value, Suit: suit}, nil
}

// Valid riporta se la carta e' nel dominio.
func (c Card) Valid() bool {
	return c.Value >= Ace && c.Value <= King && c.Suit.Valid()
}

// Rank ritorna il rango usato nei confronti.
func (c Card) Rank() int {
	return Rank(c.Value)
}

func (c Card) String() string {
	var value string
	switch c.Value {
	case Ace:
		value = "A"
	case Jack:
		value = "J"
	case Queen:
		value = "Q"
	case King:
		value = "K"
	default:
		value = fmt.Sprintf("%d", c.Value)
	}
	return value + c.Suit.Symbol()
}

// Rank mappa il valore facciale nell'ordine totale del gioco.
// L'asso vale 14, tutti gli altri valori valgono se stessi.
func Rank(value uint8) int {
	if value == Ace {
		return AceRank
	}
	return int(value)
}

// Valid riporta se il seme e' uno dei quattro ammessi.
func (s Suit) Valid() bool {
	return s >= Hearts && s <= Spades
}

func (s Suit) String() string {
	switch s {
	case Hearts:
		return "HEARTS"
	case Diamonds:
		return "DIAMONDS"
	case Clubs:
		return "CLUBS"
	case Spades:
		return "SPADES"
	default:
		return "UNKNOWN"
	}
}

// Symbol ritorna il simbolo unicode del seme, solo per visualizzazione.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// ParseSuit converte il nome persistito (es. "HEARTS") nel seme.
func ParseSuit(name string) (Suit, error) {
	switch name {
	case "HEARTS":
		return Hearts, nil
	case "DIAMONDS":
		return Diamonds, nil
	case "CLUBS":
		return Clubs, nil
	case "SPADES":
		return Spades, nil
	default:
		return 0, fmt.Errorf("%w: unknown suit %q", ErrInvalidCard, name)
	}
}
