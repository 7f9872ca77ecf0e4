package main

import (
	"crypto/rand"
	"time"
)

// Player holds the data we store server-side for one connection.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Score  int    `json:"score"`
}

// Answer binds a player id, their display name as captured at submission
// time, and the free-text content.
type Answer struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Answer     string `json:"answer"`
}

// Vote is one authorship guess: AnswerID identifies the answer (by its
// author's player id), GuessedPlayerID is who the voter thinks wrote it.
type Vote struct {
	AnswerID        string `json:"answerId"`
	GuessedPlayerID string `json:"guessedPlayerId"`
}

type Phase string

const (
	PhaseLobby            Phase = "lobby"
	PhasePromptSelection  Phase = "promptSelection"
	PhaseStyleSelection   Phase = "styleSelection"
	PhaseAnswerCollection Phase = "answerCollection"
	PhaseVoting           Phase = "voting"
	PhaseResults          Phase = "results"
)

// Lobby is one game session. All fields are owned by the gateway actor;
// nothing here is safe for concurrent use.
type Lobby struct {
	code    string
	phase   Phase
	players []*Player // insertion order, drives turn rotation

	rotation TurnRotation

	promptOptions []string
	styleOptions  []string
	prompt        string
	style         string

	answers   map[string]Answer // keyed by author id
	voteOrder []string          // author ids in shuffled presentation order
	votes     map[string][]Vote // keyed by voter id

	lastActive time.Time
}

func newLobby(code string) *Lobby {
	return &Lobby{
		code:       code,
		phase:      PhaseLobby,
		answers:    make(map[string]Answer),
		votes:      make(map[string][]Vote),
		lastActive: time.Now(),
	}
}

func (l *Lobby) touch() {
	l.lastActive = time.Now()
}

func (l *Lobby) playerByID(id string) *Player {
	for _, p := range l.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Excludes I, O, 0, and 1 for legibility.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 4

// LobbyRegistry maps lobby codes to lobbies. It is owned and mutated
// exclusively by the gateway actor, so it carries no lock of its own.
type LobbyRegistry struct {
	lobbies map[string]*Lobby
}

func newLobbyRegistry() *LobbyRegistry {
	return &LobbyRegistry{
		lobbies: make(map[string]*Lobby),
	}
}

func (r *LobbyRegistry) create() *Lobby {
	lobby := newLobby(r.newLobbyCode())
	r.lobbies[lobby.code] = lobby
	return lobby
}

func (r *LobbyRegistry) get(code string) (*Lobby, bool) {
	lobby, ok := r.lobbies[code]
	return lobby, ok
}

func (r *LobbyRegistry) delete(code string) {
	delete(r.lobbies, code)
}

// newLobbyCode generates a crypto-random code and regenerates on collision
// with an existing lobby.
func (r *LobbyRegistry) newLobbyCode() string {
	for {
		buf := make([]byte, codeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, codeLength)
		for i := range out {
			out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := string(out)

		if _, exists := r.lobbies[code]; !exists {
			return code
		}
	}
}
