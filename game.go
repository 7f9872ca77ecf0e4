package main

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Rejection messages, delivered to the offending connection as an error
// event. A rejected action never changes lobby state.
var (
	errNotHost          = errors.New("Only the host can do that")
	errNeedTwoPlayers   = errors.New("Need at least 2 players to start")
	errGameInProgress   = errors.New("Game already in progress")
	errWrongPhase       = errors.New("That action is not allowed right now")
	errNotYourTurn      = errors.New("It is not your turn")
	errUnknownOption    = errors.New("That choice was not one of the options")
	errEmptyAnswer      = errors.New("Answer cannot be empty")
	errAnswerTooLong    = errors.New("Answer is too long")
	errAlreadyVoted     = errors.New("You have already submitted your votes")
	errIncompleteVotes  = errors.New("Votes must cover each other player's answer exactly once")
	errNotInRoundRoster = errors.New("You are not part of this round")
)

const optionCount = 3

func (l *Lobby) promptSelector() *Player {
	if len(l.players) == 0 {
		return nil
	}
	return l.players[l.rotation.PromptIndex%len(l.players)]
}

func (l *Lobby) styleSelector() *Player {
	if len(l.players) == 0 {
		return nil
	}
	return l.players[l.rotation.StyleIndex%len(l.players)]
}

// startGame moves a pre-game lobby into prompt selection. Host only,
// two-player minimum.
func (l *Lobby) startGame(actorID string, content *ContentProvider) ([]outbound, error) {
	if l.phase != PhaseLobby {
		return nil, errGameInProgress
	}

	actor := l.playerByID(actorID)
	if actor == nil || !actor.IsHost {
		return nil, errNotHost
	}
	if len(l.players) < 2 {
		return nil, errNeedTwoPlayers
	}

	l.rotation.Initialize(len(l.players))
	l.promptOptions = content.Prompts(optionCount)
	l.phase = PhasePromptSelection

	return []outbound{
		toRoom(GameStartedMessage{Type: "gameStarted"}),
		toRoom(PromptSelectionMessage{
			Type:       "startPromptSelection",
			Prompts:    l.promptOptions,
			SelectorID: l.promptSelector().ID,
		}),
	}, nil
}

// selectPrompt records the designated selector's prompt choice and opens
// style selection.
func (l *Lobby) selectPrompt(actorID, prompt string, content *ContentProvider) ([]outbound, error) {
	if l.phase != PhasePromptSelection {
		return nil, errWrongPhase
	}
	if l.promptSelector().ID != actorID {
		return nil, errNotYourTurn
	}
	if !containsOption(l.promptOptions, prompt) {
		return nil, errUnknownOption
	}

	l.prompt = prompt
	l.styleOptions = content.Styles(optionCount)
	l.phase = PhaseStyleSelection

	return []outbound{
		toRoom(PromptSelectedMessage{Type: "promptSelected", Prompt: prompt}),
		toRoom(StyleSelectionMessage{
			Type:       "startStyleSelection",
			Styles:     l.styleOptions,
			SelectorID: l.styleSelector().ID,
		}),
	}, nil
}

// selectStyle records the style choice, advances the rotation for the next
// round, resets per-round collections, and opens answer submission.
func (l *Lobby) selectStyle(actorID, style string) ([]outbound, error) {
	if l.phase != PhaseStyleSelection {
		return nil, errWrongPhase
	}
	if l.styleSelector().ID != actorID {
		return nil, errNotYourTurn
	}
	if !containsOption(l.styleOptions, style) {
		return nil, errUnknownOption
	}

	l.style = style
	l.rotation.Advance(len(l.players))
	l.answers = make(map[string]Answer)
	l.votes = make(map[string][]Vote)
	l.voteOrder = nil
	l.phase = PhaseAnswerCollection

	return []outbound{
		toRoom(StyleSelectedMessage{Type: "styleSelected", Style: style}),
		toRoom(RoundSetupMessage{
			Type:        "roundSetup",
			Prompt:      l.prompt,
			AnswerStyle: l.style,
		}),
	}, nil
}

// submitAnswer records one player's answer. Resubmission overwrites the
// earlier answer (last write wins). When every player has answered, the
// round moves to voting.
func (l *Lobby) submitAnswer(actorID, text string, maxLen int) ([]outbound, error) {
	if l.phase != PhaseAnswerCollection {
		return nil, errWrongPhase
	}

	actor := l.playerByID(actorID)
	if actor == nil {
		return nil, errNotInRoundRoster
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errEmptyAnswer
	}
	if utf8.RuneCountInString(text) > maxLen {
		return nil, errAnswerTooLong
	}

	l.answers[actorID] = Answer{
		PlayerID:   actorID,
		PlayerName: actor.Name,
		Answer:     text,
	}

	outs := []outbound{
		toPlayer(actorID, AnswerReceivedMessage{Type: "answerReceived"}),
	}

	if len(l.answers) == len(l.players) {
		return append(outs, l.beginVoting()...), nil
	}

	return append(outs, toRoom(ProgressMessage{
		Type:      "answerProgress",
		Submitted: len(l.answers),
		Total:     len(l.players),
	})), nil
}

// beginVoting shuffles the collected answers, strips authorship, and
// publishes them to the room. The per-answer id is the author's player id,
// kept as an opaque handle for the later reveal.
func (l *Lobby) beginVoting() []outbound {
	l.phase = PhaseVoting

	l.voteOrder = make([]string, 0, len(l.answers))
	for _, p := range l.players {
		if _, ok := l.answers[p.ID]; ok {
			l.voteOrder = append(l.voteOrder, p.ID)
		}
	}

	// Fisher-Yates
	for i := len(l.voteOrder) - 1; i > 0; i-- {
		j := randIndex(i + 1)
		l.voteOrder[i], l.voteOrder[j] = l.voteOrder[j], l.voteOrder[i]
	}

	anonymized := make([]AnonymousAnswer, 0, len(l.voteOrder))
	for _, id := range l.voteOrder {
		anonymized = append(anonymized, AnonymousAnswer{
			AnswerID: id,
			Answer:   l.answers[id].Answer,
		})
	}

	outs := []outbound{
		toRoom(VotingPhaseMessage{
			Type:    "startVotingPhase",
			Answers: anonymized,
			Players: l.players,
		}),
	}

	// A solo roster has nothing to guess; close the round at once rather
	// than waiting on an empty vote submission.
	if len(l.players) < 2 {
		outs = append(outs, l.finishVoting()...)
	}

	return outs
}

// submitVotes records one player's full vote set. A second submission is
// rejected. The set must cover exactly the other players' answers, one vote
// each; self-votes are tolerated but contribute nothing.
func (l *Lobby) submitVotes(actorID string, cast []Vote) ([]outbound, error) {
	if l.phase != PhaseVoting {
		return nil, errWrongPhase
	}
	if l.playerByID(actorID) == nil {
		return nil, errNotInRoundRoster
	}
	if _, voted := l.votes[actorID]; voted {
		return nil, errAlreadyVoted
	}

	expected := make(map[string]bool, len(l.answers))
	for id := range l.answers {
		if id != actorID {
			expected[id] = true
		}
	}

	covered := make(map[string]bool, len(cast))
	for _, vote := range cast {
		if vote.AnswerID == actorID {
			continue
		}
		if !expected[vote.AnswerID] || covered[vote.AnswerID] {
			return nil, errIncompleteVotes
		}
		covered[vote.AnswerID] = true
	}
	if len(covered) != len(expected) {
		return nil, errIncompleteVotes
	}

	l.votes[actorID] = cast

	if l.votedCount() == len(l.players) {
		return l.finishVoting(), nil
	}

	return []outbound{
		toRoom(ProgressMessage{
			Type:      "votingProgress",
			Submitted: l.votedCount(),
			Total:     len(l.players),
		}),
	}, nil
}

// votedCount counts vote sets belonging to players still in the roster.
func (l *Lobby) votedCount() int {
	count := 0
	for _, p := range l.players {
		if _, ok := l.votes[p.ID]; ok {
			count++
		}
	}
	return count
}

// finishVoting scores the round, folds the deltas into cumulative totals,
// and reveals authorship, scores, and the raw vote record.
func (l *Lobby) finishVoting() []outbound {
	deltas := scoreRound(l.answers, l.votes)
	for _, p := range l.players {
		p.Score += deltas[p.ID]
	}

	l.phase = PhaseResults

	revealed := make([]Answer, 0, len(l.voteOrder))
	for _, id := range l.voteOrder {
		if answer, ok := l.answers[id]; ok {
			revealed = append(revealed, answer)
		}
	}

	scores := make([]ScoreEntry, 0, len(l.players))
	for _, p := range l.players {
		scores = append(scores, ScoreEntry{ID: p.ID, Name: p.Name, Score: p.Score})
	}

	return []outbound{
		toRoom(RevealResultsMessage{
			Type:          "revealResults",
			Answers:       revealed,
			Scores:        scores,
			VotingResults: l.votes,
		}),
	}
}

// nextRound re-enters prompt selection with the already-advanced rotation.
func (l *Lobby) nextRound(actorID string, content *ContentProvider) ([]outbound, error) {
	if l.phase != PhaseResults {
		return nil, errWrongPhase
	}

	actor := l.playerByID(actorID)
	if actor == nil || !actor.IsHost {
		return nil, errNotHost
	}

	l.prompt = ""
	l.style = ""
	l.promptOptions = content.Prompts(optionCount)
	l.phase = PhasePromptSelection

	return []outbound{
		toRoom(PromptSelectionMessage{
			Type:       "startPromptSelection",
			Prompts:    l.promptOptions,
			SelectorID: l.promptSelector().ID,
		}),
	}, nil
}

// addPlayer admits a player to the roster. Mid-game joins are allowed only
// during the selection phases; the joiner gets a synthetic replay of the
// current phase so their client reaches parity without a full history.
func (l *Lobby) addPlayer(p *Player) ([]outbound, error) {
	switch l.phase {
	case PhaseLobby:
		l.players = append(l.players, p)

		return []outbound{
			toPlayer(p.ID, LobbyJoinedMessage{Type: "lobbyJoined", LobbyCode: l.code, Player: p}),
			toRoom(PlayerListMessage{Type: "playerListUpdate", Players: l.players}),
		}, nil

	case PhasePromptSelection, PhaseStyleSelection:
		prevPromptID := l.promptSelector().ID
		prevStyleID := l.styleSelector().ID

		l.players = append(l.players, p)
		l.rotation.Rebind(prevPromptID, prevStyleID, l.players)

		outs := []outbound{
			toPlayer(p.ID, LobbyJoinedMessage{Type: "lobbyJoined", LobbyCode: l.code, Player: p}),
			toRoom(PlayerListMessage{Type: "playerListUpdate", Players: l.players}),
			toPlayer(p.ID, GameStartedMessage{Type: "gameStarted"}),
		}

		if l.phase == PhasePromptSelection {
			outs = append(outs, toPlayer(p.ID, PromptSelectionMessage{
				Type:       "startPromptSelection",
				Prompts:    l.promptOptions,
				SelectorID: l.promptSelector().ID,
			}))
		} else {
			outs = append(outs,
				toPlayer(p.ID, PromptSelectedMessage{Type: "promptSelected", Prompt: l.prompt}),
				toPlayer(p.ID, StyleSelectionMessage{
					Type:       "startStyleSelection",
					Styles:     l.styleOptions,
					SelectorID: l.styleSelector().ID,
				}))
		}

		return outs, nil

	default:
		return nil, errGameInProgress
	}
}

// removePlayer drops a player from the roster and reconciles everything
// that depends on it: host flag, rotation indices, pending answers and
// votes, and phase completion. Removing a pending answer or vote set can
// newly satisfy the completion predicate, in which case the same transition
// fires as if the last submission had arrived. Returns true when the lobby
// is now empty and should be deleted.
func (l *Lobby) removePlayer(id string) ([]outbound, bool) {
	idx := indexOfPlayer(l.players, id)
	if idx < 0 {
		return nil, len(l.players) == 0
	}

	var prevPromptID, prevStyleID string
	if l.phase != PhaseLobby {
		prevPromptID = l.promptSelector().ID
		prevStyleID = l.styleSelector().ID
	}

	wasHost := l.players[idx].IsHost
	l.players = append(l.players[:idx], l.players[idx+1:]...)

	if len(l.players) == 0 {
		return nil, true
	}

	if wasHost {
		l.players[0].IsHost = true
	}

	if l.phase != PhaseLobby {
		l.rotation.Rebind(prevPromptID, prevStyleID, l.players)

		// A departed selector's fallback can land both duties on one seat.
		// Move the duty that is not actively picking, so a still-connected
		// selector is never stripped of their turn.
		if len(l.players) > 1 && l.rotation.PromptIndex == l.rotation.StyleIndex {
			if l.phase == PhaseStyleSelection {
				l.rotation.PromptIndex = (l.rotation.StyleIndex + 1) % len(l.players)
			} else {
				l.rotation.StyleIndex = (l.rotation.PromptIndex + 1) % len(l.players)
			}
		}
	}

	outs := []outbound{
		toRoom(PlayerListMessage{Type: "playerListUpdate", Players: l.players}),
	}

	switch l.phase {
	case PhasePromptSelection:
		// A departed selector would stall the room.
		if selector := l.promptSelector(); selector.ID != prevPromptID {
			outs = append(outs, toRoom(PromptSelectionMessage{
				Type:       "startPromptSelection",
				Prompts:    l.promptOptions,
				SelectorID: selector.ID,
			}))
		}

	case PhaseStyleSelection:
		if selector := l.styleSelector(); selector.ID != prevStyleID {
			outs = append(outs, toRoom(StyleSelectionMessage{
				Type:       "startStyleSelection",
				Styles:     l.styleOptions,
				SelectorID: selector.ID,
			}))
		}

	case PhaseAnswerCollection:
		delete(l.answers, id)
		if len(l.answers) == len(l.players) {
			outs = append(outs, l.beginVoting()...)
		} else {
			outs = append(outs, toRoom(ProgressMessage{
				Type:      "answerProgress",
				Submitted: len(l.answers),
				Total:     len(l.players),
			}))
		}

	case PhaseVoting:
		delete(l.votes, id)
		if l.votedCount() == len(l.players) || len(l.players) < 2 {
			outs = append(outs, l.finishVoting()...)
		} else {
			outs = append(outs, toRoom(ProgressMessage{
				Type:      "votingProgress",
				Submitted: l.votedCount(),
				Total:     len(l.players),
			}))
		}
	}

	return outs, false
}

func containsOption(options []string, choice string) bool {
	for _, option := range options {
		if option == choice {
			return true
		}
	}
	return false
}
