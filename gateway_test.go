package main

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) string {
	t.Helper()

	cfg := &Config{
		maxAnswerSize:  500,
		sessionTimeout: time.Hour,
	}
	g := newGateway(cfg, testContent())
	go g.run()

	mux := httprouter.New()
	mux.GET("/ws", serveWS(cfg, g))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

type testConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialTestConn(t *testing.T, url string) *testConn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testConn{t: t, conn: conn}
}

func (c *testConn) send(msg ClientMessage) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *testConn) expect(msgType string) map[string]any {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg map[string]any
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	require.Equal(c.t, msgType, msg["type"], "unexpected message: %v", msg)

	return msg
}

func playerID(msg map[string]any) string {
	player, _ := msg["player"].(map[string]any)
	id, _ := player["id"].(string)
	return id
}

func TestCreateLobbyValidation(t *testing.T) {
	url := setupTestServer(t)

	conn := dialTestConn(t, url)
	conn.send(ClientMessage{Type: "createLobby", Username: "   "})
	errMsg := conn.expect("error")
	assert.Equal(t, "Username cannot be empty", errMsg["message"])
}

func TestJoinUnknownLobby(t *testing.T) {
	url := setupTestServer(t)

	conn := dialTestConn(t, url)
	conn.send(ClientMessage{Type: "joinLobby", Username: "Bob", LobbyCode: "ZZZZ"})
	errMsg := conn.expect("error")
	assert.Equal(t, "Lobby not found", errMsg["message"])
}

func TestActionWithoutLobby(t *testing.T) {
	url := setupTestServer(t)

	conn := dialTestConn(t, url)
	conn.send(ClientMessage{Type: "startGame"})
	errMsg := conn.expect("error")
	assert.Equal(t, "You are not in a lobby", errMsg["message"])
}

func TestDisconnectReassignsHostOverWire(t *testing.T) {
	url := setupTestServer(t)

	alice := dialTestConn(t, url)
	alice.send(ClientMessage{Type: "createLobby", Username: "Alice"})
	created := alice.expect("lobbyCreated")
	code, _ := created["lobbyCode"].(string)
	alice.expect("playerListUpdate")

	bob := dialTestConn(t, url)
	bob.send(ClientMessage{Type: "joinLobby", Username: "Bob", LobbyCode: code})
	bob.expect("lobbyJoined")
	bob.expect("playerListUpdate")
	alice.expect("playerListUpdate")

	// Host leaves; Bob inherits.
	require.NoError(t, alice.conn.Close())

	update := bob.expect("playerListUpdate")
	players, _ := update["players"].([]any)
	require.Len(t, players, 1)
	remaining, _ := players[0].(map[string]any)
	assert.Equal(t, "Bob", remaining["name"])
	assert.Equal(t, true, remaining["isHost"])
}

// The full scenario: create, join, start, alternating selection, answers,
// voting, and a reveal in which both correct guessers earn a point.
func TestEndToEndTwoPlayerRound(t *testing.T) {
	url := setupTestServer(t)

	alice := dialTestConn(t, url)
	alice.send(ClientMessage{Type: "createLobby", Username: "Alice"})
	created := alice.expect("lobbyCreated")
	code, _ := created["lobbyCode"].(string)
	aliceID := playerID(created)
	require.NotEmpty(t, aliceID)
	require.Len(t, code, codeLength)
	alice.expect("playerListUpdate")

	bob := dialTestConn(t, url)
	bob.send(ClientMessage{Type: "joinLobby", Username: "Bob", LobbyCode: code})
	joined := bob.expect("lobbyJoined")
	bobID := playerID(joined)
	require.NotEmpty(t, bobID)
	bob.expect("playerListUpdate")
	alice.expect("playerListUpdate")

	// Start: host only.
	bob.send(ClientMessage{Type: "startGame"})
	errMsg := bob.expect("error")
	assert.Equal(t, "Only the host can do that", errMsg["message"])

	alice.send(ClientMessage{Type: "startGame"})
	alice.expect("gameStarted")
	bob.expect("gameStarted")

	promptMsg := alice.expect("startPromptSelection")
	bob.expect("startPromptSelection")
	assert.Equal(t, aliceID, promptMsg["selectorId"])
	prompts, _ := promptMsg["prompts"].([]any)
	require.Len(t, prompts, 3)

	// Wrong-turn attempt is an error and nothing advances.
	bob.send(ClientMessage{Type: "selectPrompt", Prompt: prompts[0].(string)})
	errMsg = bob.expect("error")
	assert.Equal(t, "It is not your turn", errMsg["message"])

	alice.send(ClientMessage{Type: "selectPrompt", Prompt: prompts[0].(string)})
	alice.expect("promptSelected")
	bob.expect("promptSelected")

	styleMsg := alice.expect("startStyleSelection")
	bob.expect("startStyleSelection")
	assert.Equal(t, bobID, styleMsg["selectorId"], "style duty alternates to Bob")
	styles, _ := styleMsg["styles"].([]any)
	require.Len(t, styles, 3)

	bob.send(ClientMessage{Type: "selectStyle", Style: styles[0].(string)})
	alice.expect("styleSelected")
	bob.expect("styleSelected")
	setup := alice.expect("roundSetup")
	bob.expect("roundSetup")
	assert.Equal(t, prompts[0], setup["prompt"])
	assert.Equal(t, styles[0], setup["answerStyle"])

	alice.send(ClientMessage{Type: "submitAnswer", Answer: "from alice"})
	alice.expect("answerReceived")
	progress := alice.expect("answerProgress")
	assert.Equal(t, float64(1), progress["submitted"])
	assert.Equal(t, float64(2), progress["total"])
	bob.expect("answerProgress")

	bob.send(ClientMessage{Type: "submitAnswer", Answer: "from bob"})
	bob.expect("answerReceived")

	voting := alice.expect("startVotingPhase")
	bob.expect("startVotingPhase")
	answers, _ := voting["answers"].([]any)
	require.Len(t, answers, 2, "exactly two anonymized answers")
	for _, raw := range answers {
		answer, _ := raw.(map[string]any)
		assert.Contains(t, []any{aliceID, bobID}, answer["answerId"])
		assert.NotContains(t, answer, "playerName", "authorship must be stripped")
	}

	alice.send(ClientMessage{
		Type:  "submitVotes",
		Votes: []Vote{{AnswerID: bobID, GuessedPlayerID: bobID}},
	})
	alice.expect("votingProgress")
	bob.expect("votingProgress")

	bob.send(ClientMessage{
		Type:  "submitVotes",
		Votes: []Vote{{AnswerID: aliceID, GuessedPlayerID: aliceID}},
	})

	reveal := alice.expect("revealResults")
	bob.expect("revealResults")

	revealed, _ := reveal["answers"].([]any)
	require.Len(t, revealed, 2)
	authors := map[string]any{}
	for _, raw := range revealed {
		answer, _ := raw.(map[string]any)
		authors[answer["playerId"].(string)] = answer["answer"]
	}
	assert.Equal(t, map[string]any{
		aliceID: "from alice",
		bobID:   "from bob",
	}, authors)

	scores, _ := reveal["scores"].([]any)
	require.Len(t, scores, 2)
	for _, raw := range scores {
		entry, _ := raw.(map[string]any)
		assert.Equal(t, float64(1), entry["score"], "both guessed correctly")
	}
}

// The reap step runs single-threaded inside the gateway actor, so it can be
// exercised directly against staged state.
func TestReapIdleDeletesLobbyAndDisconnectsMembers(t *testing.T) {
	cfg := &Config{
		maxAnswerSize:  500,
		sessionTimeout: time.Minute,
	}
	g := newGateway(cfg, testContent())

	stale := g.registry.create()
	stale.players = makePlayers(2)
	stale.lastActive = time.Now().Add(-2 * time.Minute)

	var members []*Client
	for _, p := range stale.players {
		c := &Client{send: make(chan any, 8), playerID: p.ID}
		g.clients[c] = true
		g.byPlayer[p.ID] = c
		g.membership[p.ID] = stale.code
		members = append(members, c)
	}

	fresh := g.registry.create()
	fresh.players = makePlayers(1)

	g.reapIdle()

	_, ok := g.registry.get(stale.code)
	assert.False(t, ok, "idle lobby must be deleted")
	_, ok = g.registry.get(fresh.code)
	assert.True(t, ok, "active lobby must survive")

	for _, p := range stale.players {
		assert.NotContains(t, g.membership, p.ID)
		assert.NotContains(t, g.byPlayer, p.ID)
	}
	for _, c := range members {
		assert.NotContains(t, g.clients, c)
		_, open := <-c.send
		assert.False(t, open, "reaped member's send channel must be closed")
	}
}
