package cards

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// deckSize e' il numero di combinazioni valore/seme.
const deckSize = 13 * 4

// Generator estrae una carta. Ogni estrazione e' indipendente.
type Generator interface {
	Draw() (Card, error)
}

// CryptoGenerator estrae carte uniformi da una sorgente crittografica.
// E' sicuro per uso concorrente: non mantiene stato tra le estrazioni.
type CryptoGenerator struct {
	source io.Reader
}

// NewCryptoGenerator usa crypto/rand come sorgente.
func NewCryptoGenerator() *CryptoGenerator {
	return &CryptoGenerator{source: crand.Reader}
}

// Draw estrae uniformemente una delle 52 combinazioni.
func (g *CryptoGenerator) Draw() (Card, error) {
	n, err := crand.Int(g.source, big.NewInt(deckSize))
	if err != nil {
		return Card{}, fmt.Errorf("draw card: %w", err)
	}
	idx := n.Int64()
	return Card{
		Value: uint8(idx%13) + 1,
		Suit:  Suit(idx/13) + Hearts,
	}, nil
}
