package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jgoulah/waterdash/internal/charts"
	"github.com/jgoulah/waterdash/internal/filter"
)

const (
	// Time allowed to write a reply to the client
	writeWait = 10 * time.Second

	// Time allowed between client messages
	idleTimeout = 5 * time.Minute

	// Maximum size of a widget-state message
	maxMessageSize = 64 * 1024
)

// wsReply answers one widget-state message
type wsReply struct {
	Session string          `json:"session"`
	Seq     int             `json:"seq"`
	Spec    *filter.Spec    `json:"spec,omitempty"`
	Summary *filter.Summary `json:"summary,omitempty"`
	Charts  *charts.Set     `json:"charts,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// handleWebsocket runs a live filter session. Each client message is the
// current widget state as an object of parameter lists, the same shape as
// the query string accepted by the API (e.g. {"userId": ["u1"], "start": ["1709280000"]}).
// Each reply carries the recomputed summary and chart data.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	s.log.Info("Websocket session %s opened from %s", session, r.RemoteAddr)
	defer s.log.Info("Websocket session %s closed", session)

	conn.SetReadLimit(maxMessageSize)

	for seq := 1; ; seq++ {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Websocket session %s: %v", session, err)
			}
			return
		}

		reply := s.answer(message)
		reply.Session = session
		reply.Seq = seq

		body, err := json.Marshal(reply, json.Deterministic(true))
		if err != nil {
			s.log.Error("Encoding websocket reply: %v", err)
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			s.log.Warn("Websocket session %s: %v", session, err)
			return
		}
	}
}

// answer filters the dataset for one widget-state message
func (s *Server) answer(message []byte) wsReply {
	var state map[string][]string
	if err := json.Unmarshal(message, &state); err != nil {
		return wsReply{Error: "invalid widget state: " + err.Error()}
	}

	spec, view, err := s.filterRequest(url.Values(state))
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			s.log.Error("%v", err)
		}
		return wsReply{Error: err.Error()}
	}

	summary := view.Summary()
	set := charts.Build(view)
	return wsReply{Spec: &spec, Summary: &summary, Charts: &set}
}
