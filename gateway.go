package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type inboundEvent struct {
	client *Client
	msg    ClientMessage
}

// Gateway owns all mutable game state. A single actor goroutine consumes
// registrations, departures, and inbound events in order, handling each to
// completion before the next, which makes every lobby transition atomic.
type Gateway struct {
	cfg      *Config
	content  *ContentProvider
	registry *LobbyRegistry

	register chan *Client
	unreg    chan *Client
	events   chan inboundEvent

	// actor-owned; never touched outside run()
	clients    map[*Client]bool
	byPlayer   map[string]*Client
	membership map[string]string // player id -> lobby code
}

func newGateway(cfg *Config, content *ContentProvider) *Gateway {
	return &Gateway{
		cfg:        cfg,
		content:    content,
		registry:   newLobbyRegistry(),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		events:     make(chan inboundEvent),
		clients:    make(map[*Client]bool),
		byPlayer:   make(map[string]*Client),
		membership: make(map[string]string),
	}
}

func (g *Gateway) run() {
	var reap <-chan time.Time
	if g.cfg.sessionTimeout > 0 {
		ticker := time.NewTicker(g.cfg.sessionTimeout / 2)
		defer ticker.Stop()
		reap = ticker.C
	}

	for {
		select {
		case c := <-g.register:
			g.clients[c] = true
			g.byPlayer[c.playerID] = c

		case c := <-g.unreg:
			g.handleDisconnect(c)

		case ev := <-g.events:
			g.handleEvent(ev)

		case <-reap:
			g.reapIdle()
		}
	}
}

func (g *Gateway) handleEvent(ev inboundEvent) {
	c := ev.client
	msg := ev.msg

	switch msg.Type {
	case "createLobby":
		g.handleCreateLobby(c, msg)
	case "joinLobby":
		g.handleJoinLobby(c, msg)
	case "startGame", "selectPrompt", "selectStyle", "submitAnswer", "submitVotes", "newRound":
		g.handleLobbyAction(c, msg)
	default:
		// ignore unknown types
	}
}

func (g *Gateway) handleCreateLobby(c *Client, msg ClientMessage) {
	username := strings.TrimSpace(msg.Username)
	if username == "" {
		g.sendError(c, "Username cannot be empty")
		return
	}
	if _, member := g.membership[c.playerID]; member {
		g.sendError(c, "You are already in a lobby")
		return
	}

	player := &Player{
		ID:     c.playerID,
		Name:   username,
		IsHost: true,
	}

	lobby := g.registry.create()
	lobby.players = append(lobby.players, player)
	g.membership[c.playerID] = lobby.code

	logf(g.cfg, "GAMES: Lobby %s created by %q", lobby.code, username)

	g.deliver(lobby, []outbound{
		toPlayer(c.playerID, LobbyCreatedMessage{Type: "lobbyCreated", LobbyCode: lobby.code, Player: player}),
		toRoom(PlayerListMessage{Type: "playerListUpdate", Players: lobby.players}),
	})
}

func (g *Gateway) handleJoinLobby(c *Client, msg ClientMessage) {
	username := strings.TrimSpace(msg.Username)
	if username == "" {
		g.sendError(c, "Username cannot be empty")
		return
	}
	if _, member := g.membership[c.playerID]; member {
		g.sendError(c, "You are already in a lobby")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(msg.LobbyCode))
	lobby, ok := g.registry.get(code)
	if !ok {
		g.sendError(c, "Lobby not found")
		return
	}

	player := &Player{
		ID:   c.playerID,
		Name: username,
	}

	outs, err := lobby.addPlayer(player)
	if err != nil {
		g.sendError(c, err.Error())
		return
	}

	g.membership[c.playerID] = code
	lobby.touch()

	logf(g.cfg, "GAMES: Player %q joined lobby %s", username, code)

	g.deliver(lobby, outs)
}

func (g *Gateway) handleLobbyAction(c *Client, msg ClientMessage) {
	code, member := g.membership[c.playerID]
	if !member {
		g.sendError(c, "You are not in a lobby")
		return
	}

	lobby, ok := g.registry.get(code)
	if !ok {
		// Stale reference to a reaped lobby.
		delete(g.membership, c.playerID)
		g.sendError(c, "Lobby not found")
		return
	}

	var outs []outbound
	var err error

	switch msg.Type {
	case "startGame":
		outs, err = lobby.startGame(c.playerID, g.content)
	case "selectPrompt":
		outs, err = lobby.selectPrompt(c.playerID, msg.Prompt, g.content)
	case "selectStyle":
		outs, err = lobby.selectStyle(c.playerID, msg.Style)
	case "submitAnswer":
		outs, err = lobby.submitAnswer(c.playerID, msg.Answer, g.cfg.maxAnswerSize)
	case "submitVotes":
		outs, err = lobby.submitVotes(c.playerID, msg.Votes)
	case "newRound":
		outs, err = lobby.nextRound(c.playerID, g.content)
	}

	if err != nil {
		g.sendError(c, err.Error())
		return
	}

	lobby.touch()
	g.deliver(lobby, outs)
}

func (g *Gateway) handleDisconnect(c *Client) {
	if _, ok := g.clients[c]; ok {
		delete(g.clients, c)
		close(c.send)
	}
	if g.byPlayer[c.playerID] == c {
		delete(g.byPlayer, c.playerID)
	}

	code, member := g.membership[c.playerID]
	if !member {
		return
	}
	delete(g.membership, c.playerID)

	lobby, ok := g.registry.get(code)
	if !ok {
		return
	}

	outs, empty := lobby.removePlayer(c.playerID)
	if empty {
		g.registry.delete(code)
		logf(g.cfg, "GAMES: Lobby %s deleted", code)
		return
	}

	lobby.touch()
	g.deliver(lobby, outs)
}

// reapIdle deletes lobbies idle past the session timeout and disconnects
// their members.
func (g *Gateway) reapIdle() {
	cutoff := time.Now().Add(-g.cfg.sessionTimeout)

	for code, lobby := range g.registry.lobbies {
		if !lobby.lastActive.Before(cutoff) {
			continue
		}

		for _, p := range lobby.players {
			delete(g.membership, p.ID)
			if c, ok := g.byPlayer[p.ID]; ok {
				g.drop(c)
				delete(g.byPlayer, p.ID)
			}
		}

		g.registry.delete(code)
		logf(g.cfg, "GAMES: Reaped idle lobby %s", code)
	}
}

// deliver routes transition output: unicast when a player id is set,
// otherwise to every roster member.
func (g *Gateway) deliver(lobby *Lobby, outs []outbound) {
	for _, out := range outs {
		if out.To != "" {
			if c, ok := g.byPlayer[out.To]; ok {
				g.sendTo(c, out.Msg)
			}
			continue
		}
		for _, p := range lobby.players {
			if c, ok := g.byPlayer[p.ID]; ok {
				g.sendTo(c, out.Msg)
			}
		}
	}
}

func (g *Gateway) sendError(c *Client, message string) {
	g.sendTo(c, ErrorMessage{Type: "error", Message: message})
}

func (g *Gateway) sendTo(c *Client, msg any) {
	if !g.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
		g.drop(c)
	}
}

// drop disconnects a stuck or reaped client. Closing send ends its
// writePump, which closes the socket; roster cleanup follows through the
// usual unregister path.
func (g *Gateway) drop(c *Client) {
	if _, ok := g.clients[c]; ok {
		delete(g.clients, c)
		close(c.send)
	}
}

func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		g.events <- inboundEvent{
			client: c,
			msg:    msg,
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(cfg *Config, g *Gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: uuid.NewString(),
		}

		g.register <- client

		go client.writePump()
		client.readPump(g)
	}
}

// qrHandler serves a PNG QR code for joining a lobby by code.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if code == "" {
			http.Error(w, "missing lobby code", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/?code=" + strings.ToUpper(code)

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerMasqueradeGame sets up the game routes:
//   - $prefix/ws        → game WebSocket
//   - $prefix/qr/:code  → PNG QR code for joining a lobby
func registerMasqueradeGame(cfg *Config, mux *httprouter.Router) {
	content := loadContent(cfg)
	g := newGateway(cfg, content)
	go g.run()

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, g))
	mux.GET(cfg.prefix+"/qr/:code", qrHandler(cfg))
}
