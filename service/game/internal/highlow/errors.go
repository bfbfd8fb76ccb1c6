package highlow

import (
	"errors"
	"fmt"
)

// Errori di dominio usati da service/store e mappati nel layer gRPC.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionNotActive indica una sessione in stato terminale.
var ErrSessionNotActive = errors.New("session not active")

// ErrInvalidInput indica puntata non positiva o enum sconosciuto.
var ErrInvalidInput = errors.New("invalid input")

// ErrPersistence avvolge ogni errore di storage/rete.
var ErrPersistence = errors.New("persistence failure")

// ErrConcurrentUpdate e' un ErrPersistence: i retry ottimistici sono finiti.
var ErrConcurrentUpdate = fmt.Errorf("%w: concurrent update on session", ErrPersistence)

// ErrCardDraw indica un guasto della sorgente casuale.
var ErrCardDraw = errors.New("card draw failed")

// classify lascia passare gli errori di dominio e marca il resto come persistenza.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrSessionNotActive),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrPersistence),
		errors.Is(err, ErrCardDraw):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}
