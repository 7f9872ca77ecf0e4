package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makePlayers(n int) []*Player {
	players := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, &Player{
			ID:   fmt.Sprintf("player-%d", i),
			Name: fmt.Sprintf("Player %d", i),
		})
	}
	if n > 0 {
		players[0].IsHost = true
	}
	return players
}

func TestRotationInitialize(t *testing.T) {
	var r TurnRotation

	r.Initialize(1)
	assert.Equal(t, 0, r.PromptIndex)
	assert.Equal(t, 0, r.StyleIndex)

	r.Initialize(4)
	assert.Equal(t, 0, r.PromptIndex)
	assert.Equal(t, 1, r.StyleIndex)
}

func TestRotationAdvanceNeverCoincides(t *testing.T) {
	for n := 2; n <= 6; n++ {
		var r TurnRotation
		r.Initialize(n)

		for round := 0; round < 3*n; round++ {
			assert.NotEqual(t, r.PromptIndex, r.StyleIndex,
				"players=%d round=%d", n, round)
			r.Advance(n)
		}
	}
}

func TestRotationAdvanceStyleFollowsPrompt(t *testing.T) {
	var r TurnRotation
	r.Initialize(3)

	r.Advance(3)
	assert.Equal(t, 1, r.PromptIndex)
	assert.Equal(t, 2, r.StyleIndex)

	r.Advance(3)
	assert.Equal(t, 2, r.PromptIndex)
	assert.Equal(t, 0, r.StyleIndex)

	r.Advance(3)
	assert.Equal(t, 0, r.PromptIndex)
	assert.Equal(t, 1, r.StyleIndex)
}

func TestRotationAdvanceSinglePlayer(t *testing.T) {
	var r TurnRotation
	r.Initialize(1)

	r.Advance(1)
	assert.Equal(t, 0, r.PromptIndex)
	assert.Equal(t, 0, r.StyleIndex)
}

func TestRotationRebindKeepsIdentities(t *testing.T) {
	players := makePlayers(3)

	var r TurnRotation
	r.Initialize(3)
	r.Advance(3) // prompt=1, style=2

	prevPrompt := players[r.PromptIndex].ID
	prevStyle := players[r.StyleIndex].ID

	// A join must not move selection rights.
	joined := append([]*Player{}, players...)
	joined = append(joined, &Player{ID: "late", Name: "Late"})

	r.Rebind(prevPrompt, prevStyle, joined)
	assert.Equal(t, prevPrompt, joined[r.PromptIndex].ID)
	assert.Equal(t, prevStyle, joined[r.StyleIndex].ID)
}

func TestRotationRebindFallsBackWhenSelectorLeft(t *testing.T) {
	players := makePlayers(4)

	var r TurnRotation
	r.Initialize(4)
	r.Advance(4) // prompt=1, style=2

	prevPrompt := players[r.PromptIndex].ID
	prevStyle := players[r.StyleIndex].ID

	// Both selectors disconnect.
	remaining := []*Player{players[0], players[3]}

	r.Rebind(prevPrompt, prevStyle, remaining)
	assert.Equal(t, 0, r.PromptIndex)
	assert.Equal(t, 1, r.StyleIndex)
	assert.NotEqual(t, r.PromptIndex, r.StyleIndex)
}
