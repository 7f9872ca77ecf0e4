package games

// Players gather in a lobby identified by a short 4-character code
// One player (the lobby creator) is the host; the host starts the game once at least two players are present
// Each round, one player picks the prompt from three options, and the next player picks the answer style from three options
// Prompt- and style-picking duties rotate together around the roster, never landing on the same player in one round
// Everyone writes a free-text answer to the prompt, in the chosen style
// Once every answer is in, the answers are shuffled and shown anonymously
// Each player guesses who wrote each of the other answers
// One point per correct authorship guess; self-votes count for nothing
// Scores accumulate across rounds until the lobby empties

// Implementation details:
// - One WebSocket per player, events dispatched by a single gateway goroutine
// - Players identified by an ephemeral per-connection id
// - Late joins allowed only while a prompt or style is still being picked
// - Lobbies are deleted when the last player leaves, or reaped after the idle timeout
