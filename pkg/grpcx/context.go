package grpcx

// Chiavi condivise per passare l'identita' del giocatore tra servizi gRPC.
type contextKey string

// ContextPlayerIDKey definisce la chiave per il context locale (non gRPC).
const ContextPlayerIDKey contextKey = "player_id"

// PlayerIDMetadataKey definisce la chiave metadata per il player_id su gRPC.
// Il front-end la valorizza dopo l'autenticazione.
const PlayerIDMetadataKey = "player_id"
