package main

// Messages coming from clients
type ClientMessage struct {
	Type      string `json:"type"`                // "createLobby", "joinLobby", "startGame", "selectPrompt", "selectStyle", "submitAnswer", "submitVotes", "newRound"
	Username  string `json:"username,omitempty"`  // createLobby / joinLobby
	LobbyCode string `json:"lobbyCode,omitempty"` // joinLobby
	Prompt    string `json:"prompt,omitempty"`    // selectPrompt
	Style     string `json:"style,omitempty"`     // selectStyle
	Answer    string `json:"answer,omitempty"`    // submitAnswer
	Votes     []Vote `json:"votes,omitempty"`     // submitVotes
}

// Sent to a single client when an action is rejected. Rejections never
// change lobby state and are never broadcast.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type LobbyCreatedMessage struct {
	Type      string  `json:"type"` // "lobbyCreated"
	LobbyCode string  `json:"lobbyCode"`
	Player    *Player `json:"player"`
}

type LobbyJoinedMessage struct {
	Type      string  `json:"type"` // "lobbyJoined"
	LobbyCode string  `json:"lobbyCode"`
	Player    *Player `json:"player"`
}

type PlayerListMessage struct {
	Type    string    `json:"type"` // "playerListUpdate"
	Players []*Player `json:"players"`
}

type GameStartedMessage struct {
	Type string `json:"type"` // "gameStarted"
}

// PromptSelectionMessage opens a prompt-selection phase: three options, and
// the id of the player allowed to pick.
type PromptSelectionMessage struct {
	Type       string   `json:"type"` // "startPromptSelection"
	Prompts    []string `json:"prompts"`
	SelectorID string   `json:"selectorId"`
}

type PromptSelectedMessage struct {
	Type   string `json:"type"` // "promptSelected"
	Prompt string `json:"prompt"`
}

type StyleSelectionMessage struct {
	Type       string   `json:"type"` // "startStyleSelection"
	Styles     []string `json:"styles"`
	SelectorID string   `json:"selectorId"`
}

type StyleSelectedMessage struct {
	Type  string `json:"type"` // "styleSelected"
	Style string `json:"style"`
}

// RoundSetupMessage publishes the finalized prompt and answer style,
// opening answer submission.
type RoundSetupMessage struct {
	Type        string `json:"type"` // "roundSetup"
	Prompt      string `json:"prompt"`
	AnswerStyle string `json:"answerStyle"`
}

// AnswerReceivedMessage acknowledges a submission to the submitter only.
type AnswerReceivedMessage struct {
	Type string `json:"type"` // "answerReceived"
}

type ProgressMessage struct {
	Type      string `json:"type"` // "answerProgress" or "votingProgress"
	Submitted int    `json:"submitted"`
	Total     int    `json:"total"`
}

// AnonymousAnswer is an answer with authorship stripped. AnswerID is the
// author's player id, retained as an opaque handle so results can reveal
// authorship without a second round trip.
type AnonymousAnswer struct {
	AnswerID string `json:"answerId"`
	Answer   string `json:"answer"`
}

type VotingPhaseMessage struct {
	Type    string            `json:"type"` // "startVotingPhase"
	Answers []AnonymousAnswer `json:"answers"`
	Players []*Player         `json:"players"`
}

type ScoreEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// RevealResultsMessage closes a round: answers with real authorship, the
// updated cumulative score table, and the raw vote record grouped by voter
// so clients can reconstruct who guessed what.
type RevealResultsMessage struct {
	Type          string            `json:"type"` // "revealResults"
	Answers       []Answer          `json:"answers"`
	Scores        []ScoreEntry      `json:"scores"`
	VotingResults map[string][]Vote `json:"votingResults"`
}

// outbound pairs a message with its destination: a single player id, or the
// whole room when To is empty. Transition functions emit these so they can
// be tested without a live transport.
type outbound struct {
	To  string
	Msg any
}

func toRoom(msg any) outbound {
	return outbound{Msg: msg}
}

func toPlayer(id string, msg any) outbound {
	return outbound{To: id, Msg: msg}
}
