package interview

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// TurnMessage 一轮用户回答
type TurnMessage struct {
	Utterance string `json:"utterance"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type turnPayload struct {
	Session  interview.Session  `json:"session"`
	Response interview.Response `json:"response"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable"`
}

// connectionState 单个连接持有的会话快照，只在读循环中修改
type connectionState struct {
	session interview.Session
	started bool
}

// handleWebSocket 处理WebSocket连接。一个连接对应一个面试会话。
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if h.observer != nil {
		h.observer.ConnectionOpened()
		defer h.observer.ConnectionClosed()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	state := &connectionState{}
	h.sendInfo(conn, "", map[string]any{"type": "connected"})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(readTimeout))

			if state.started && msg.SessionID != "" && msg.SessionID != state.session.SessionID {
				h.sendError(conn, errorPayload{Message: "session mismatch", Code: CodeInvalidInput})
				continue
			}

			h.handleMessage(ctx, conn, state, &msg)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "start":
		h.handleStartMessage(conn, state)
	case "resume":
		h.handleResumeMessage(conn, state, msg.Data)
	case "turn":
		h.handleTurnMessage(ctx, conn, state, msg.Data)
	case "finalize":
		h.handleFinalizeMessage(conn, state)
	default:
		h.sendError(conn, errorPayload{Message: "unsupported message type: " + msg.Type, Code: CodeInvalidInput})
	}
}

func (h *Handler) handleStartMessage(conn *websocket.Conn, state *connectionState) {
	turn := h.engine.Start()
	state.session = turn.Session
	state.started = true
	h.sendTurn(conn, turn.Session, turn.Response)
}

// handleResumeMessage 用客户端保存的快照恢复会话
func (h *Handler) handleResumeMessage(conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	session, err := interview.DecodeSession(raw)
	if err != nil {
		h.sendError(conn, errorPayload{Message: err.Error(), Code: CodeInvalidInput})
		return
	}
	state.session = session
	state.started = true

	log.Printf("[websocket] session resumed: %s at %s", session.SessionID, session.CurrentQuestion)
	h.sendInfo(conn, session.SessionID, map[string]any{
		"type":    "resumed",
		"session": session,
	})
}

func (h *Handler) handleTurnMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	if !state.started {
		h.sendError(conn, errorPayload{Message: "no interview in progress, send start first", Code: CodeInvalidInput})
		return
	}

	var turnMsg TurnMessage
	if err := json.Unmarshal(raw, &turnMsg); err != nil {
		h.sendError(conn, errorPayload{Message: "invalid turn payload", Code: CodeInvalidInput})
		return
	}

	release, ok := h.guard.TryAcquire(state.session.SessionID)
	if !ok {
		h.sendError(conn, errorPayload{Message: messageBusy, Code: CodeSessionBusy, Retryable: true})
		return
	}
	defer release()

	turnCtx, cancel := h.turnContext(ctx)
	defer cancel()

	turn, err := h.engine.Advance(turnCtx, state.session, turnMsg.Utterance)
	if err != nil {
		h.sendEngineError(conn, err)
		return
	}
	state.session = turn.Session
	h.sendTurn(conn, turn.Session, turn.Response)
}

func (h *Handler) handleFinalizeMessage(conn *websocket.Conn, state *connectionState) {
	if !state.started {
		h.sendError(conn, errorPayload{Message: "no interview in progress, send start first", Code: CodeInvalidInput})
		return
	}
	if state.session.Complete && state.session.FinalResult != nil {
		h.sendTurn(conn, state.session, *state.session.FinalResult)
		return
	}

	release, ok := h.guard.TryAcquire(state.session.SessionID)
	if !ok {
		h.sendError(conn, errorPayload{Message: messageBusy, Code: CodeSessionBusy, Retryable: true})
		return
	}
	defer release()

	turn, err := h.engine.Finalize(state.session)
	if err != nil {
		h.sendEngineError(conn, err)
		return
	}
	state.session = turn.Session
	h.sendTurn(conn, turn.Session, turn.Response)
}

func (h *Handler) sendTurn(conn *websocket.Conn, session interview.Session, response interview.Response) {
	h.write(conn, outgoingMessage{
		Type:      "result",
		SessionID: session.SessionID,
		Data:      turnPayload{Session: session, Response: response},
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) sendInfo(conn *websocket.Conn, sessionID string, data map[string]any) {
	h.write(conn, outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) sendEngineError(conn *websocket.Conn, err error) {
	m := mapError(err)
	h.sendError(conn, errorPayload{Message: m.message, Code: m.code, Retryable: m.retryable})
}

func (h *Handler) sendError(conn *websocket.Conn, payload errorPayload) {
	h.write(conn, outgoingMessage{
		Type:      "error",
		Data:      payload,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) write(conn *websocket.Conn, msg outgoingMessage) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", msg.Type, err)
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// WriteControl 可与 WriteJSON 并发调用
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
