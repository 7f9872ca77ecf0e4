package main

// TurnRotation tracks which roster positions pick the next prompt and the
// next answer style. Both indices are interpreted mod the current player
// count. With more than one player the two indices never coincide; with a
// single player they may.
type TurnRotation struct {
	PromptIndex int
	StyleIndex  int
}

func (t *TurnRotation) Initialize(playerCount int) {
	t.PromptIndex = 0
	t.StyleIndex = min(1, playerCount-1)
}

// Advance moves both duties one seat over for the next round: the style
// selector is always the player immediately after the prompt selector.
func (t *TurnRotation) Advance(playerCount int) {
	if playerCount < 1 {
		t.PromptIndex = 0
		t.StyleIndex = 0
		return
	}

	t.PromptIndex = (t.PromptIndex + 1) % playerCount
	if playerCount > 1 {
		t.StyleIndex = (t.PromptIndex + 1) % playerCount
	} else {
		t.StyleIndex = 0
	}
}

// Rebind re-resolves both indices to the same player identities they pointed
// at before a roster mutation, so a mid-selection join or leave never hands
// selection rights to an unintended player. A selector who is no longer
// present falls back to the initial position for that duty.
func (t *TurnRotation) Rebind(prevPromptID, prevStyleID string, players []*Player) {
	t.PromptIndex = indexOfPlayer(players, prevPromptID)
	if t.PromptIndex < 0 {
		t.PromptIndex = 0
	}

	t.StyleIndex = indexOfPlayer(players, prevStyleID)
	if t.StyleIndex < 0 {
		t.StyleIndex = min(1, len(players)-1)
	}
}

func indexOfPlayer(players []*Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
