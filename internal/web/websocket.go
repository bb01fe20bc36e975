package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"restaurant-intel/internal/features"
	"restaurant-intel/internal/form"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait   = 10 * time.Second
	wsMaxMessage  = maxBodyBytes
	wsTypeResult  = "result"
	wsTypeError   = "error"
	wsTypeOptions = "options"
)

// wsMessage is every frame the server sends.
type wsMessage struct {
	Type    string              `json:"type"`
	State   string              `json:"state"`
	Cycle   int                 `json:"cycle"`
	Result  *PredictionResponse `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
	Fields  map[string]string   `json:"fields,omitempty"`
	Options map[string][]string `json:"options,omitempty"`
}

// handleWebSocket treats every text frame as one form submission. The
// connection owns a session, so frames are answered in order, one cycle
// each.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn.SetReadLimit(wsMaxMessage)

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	session := form.NewSession()
	if err := writeWS(conn, wsMessage{Type: wsTypeOptions, State: session.State().String(), Options: s.options.All()}); err != nil {
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("WebSocket client disconnected unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if err := writeWS(conn, s.submitWS(r, session, data)); err != nil {
			log.Error().Err(err).Msg("Failed to send message to WebSocket client")
			return
		}
	}
}

func (s *Server) submitWS(r *http.Request, session *form.Session, data []byte) wsMessage {
	in := features.DefaultRawInput()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return wsMessage{Type: wsTypeError, State: session.State().String(), Cycle: session.Cycles(), Error: "invalid JSON: " + err.Error()}
	}
	s.fillCategoricalDefaults(&in)

	if err := form.Validate(in); err != nil {
		resp := validationResponse(err)
		return wsMessage{Type: wsTypeError, State: session.State().String(), Cycle: session.Cycles(), Error: resp.Error, Fields: resp.Fields}
	}

	if err := session.Submit(in); err != nil {
		return wsMessage{Type: wsTypeError, State: session.State().String(), Cycle: session.Cycles(), Error: err.Error()}
	}

	result, err := s.runCycle(r, in)
	_ = session.Complete(result, err)

	msg := wsMessage{State: session.State().String(), Cycle: session.Cycles()}
	if err != nil {
		msg.Type = wsTypeError
		msg.Error = err.Error()
		return msg
	}
	resp := s.newPredictionResponse(result)
	msg.Type = wsTypeResult
	msg.Result = &resp
	return msg
}

func writeWS(conn *websocket.Conn, msg wsMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}
