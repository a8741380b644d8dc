package gateway

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mortvvnutri/legendary-chainsaw/go/internal/auth"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleTeamStatusWS drives the presence tracker. A team is online for
// exactly as long as its socket is open: presence flips to online after a
// successful upgrade and back to offline on any exit path.
//
// Browser WebSocket clients cannot set headers, so the token rides in the
// query string.
func (rt *Router) handleTeamStatusWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	identity, err := rt.auth.RequireRole(r.Context(), token, auth.RoleTeam)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Int64("team_id", identity.TeamID).
			Msg("failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	if err := rt.presence.SetOnline(r.Context(), identity.TeamID); err != nil {
		log.Error().Err(err).Int64("team_id", identity.TeamID).
			Msg("failed to mark team online")
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "presence unavailable"),
			time.Now().Add(wsWriteTimeout))
		return
	}
	defer rt.presence.SetOffline(identity.TeamID)

	log.Info().Int64("team_id", identity.TeamID).Str("team_name", identity.TeamName).
		Msg("team connected")

	done := make(chan struct{})
	go rt.pingLoop(conn, done)
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	// Incoming frames carry no commands; reading only keeps the
	// connection (and the read deadline) alive until the peer leaves.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Int64("team_id", identity.TeamID).
					Msg("unexpected WebSocket close error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	}

	log.Info().Int64("team_id", identity.TeamID).Msg("team disconnected")
}

func (rt *Router) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
