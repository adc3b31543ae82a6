package interview

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	interviewService "github.com/zhouzirui/investor-interview/backend/internal/service/interview"
	"github.com/zhouzirui/investor-interview/backend/pkg/utils"
)

// ConnectionObserver is told when WebSocket connections open and close.
type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
}

// Handler 面试流程的HTTP处理器
type Handler struct {
	engine   *interviewService.Engine
	guard    *TurnGuard
	timeout  time.Duration
	observer ConnectionObserver
	upgrader websocket.Upgrader
}

// New 创建面试处理器。timeout 限制单轮解析耗时，observer 可为 nil。
func New(engine *interviewService.Engine, guard *TurnGuard, timeout time.Duration, observer ConnectionObserver) *Handler {
	if guard == nil {
		guard = NewTurnGuard()
	}
	return &Handler{
		engine:   engine,
		guard:    guard,
		timeout:  timeout,
		observer: observer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册面试相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/interview/start", h.handleStart)
	r.Post("/interview/next", h.handleNext)
	r.Post("/interview/revise", h.handleRevise)
	r.Post("/interview/finalize", h.handleFinalize)
	r.Get("/interview/health", h.handleHealth)
	r.Get("/interview/ws", h.handleWebSocket)
}

type startResponse struct {
	Session  interview.Session  `json:"session"`
	Response interview.Response `json:"response"`
}

// handleStart 开启新的面试
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	turn := h.engine.Start()
	utils.RespondJSON(w, http.StatusCreated, startResponse{Session: turn.Session, Response: turn.Response})
}

// handleNext 处理一轮回答
func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	var req interview.TurnRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), false)
		return
	}

	release, ok := h.guard.TryAcquire(req.SessionID)
	if !ok {
		respondBusy(w)
		return
	}
	defer release()

	ctx, cancel := h.turnContext(r.Context())
	defer cancel()

	turn, err := h.engine.Advance(ctx, req.Session(), req.LastUserUtterance)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn.Response)
}

type reviseRequest struct {
	Session    json.RawMessage      `json:"session"`
	QuestionID interview.QuestionID `json:"questionId"`
	Value      string               `json:"value"`
}

type reviseResponse struct {
	Session interview.Session `json:"session"`
}

// handleRevise 修改已回答的问题
func (h *Handler) handleRevise(w http.ResponseWriter, r *http.Request) {
	var req reviseRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), false)
		return
	}
	if len(req.Session) == 0 {
		utils.RespondErrorCode(w, http.StatusBadRequest, CodeInvalidInput, "session is required", false)
		return
	}

	session, err := interview.DecodeSession(req.Session)
	if err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), false)
		return
	}

	release, ok := h.guard.TryAcquire(session.SessionID)
	if !ok {
		respondBusy(w)
		return
	}
	defer release()

	updated, err := h.engine.Revise(session, req.QuestionID, req.Value)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reviseResponse{Session: updated})
}

type finalizeRequest struct {
	SessionID string              `json:"sessionId"`
	Answers   interview.AnswerSet `json:"answers"`
}

// handleFinalize 在复核后直接生成最终结果
func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondErrorCode(w, http.StatusBadRequest, CodeInvalidInput, err.Error(), false)
		return
	}

	release, ok := h.guard.TryAcquire(req.SessionID)
	if !ok {
		respondBusy(w)
		return
	}
	defer release()

	turn, err := h.engine.Finalize(interview.Session{
		SessionID:       req.SessionID,
		CurrentQuestion: interview.LastQuestion,
		Answers:         req.Answers,
	})
	if err != nil {
		respondEngineError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turn.Response)
}

// handleHealth 健康检查
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Healthy() {
		utils.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) turnContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.timeout)
}
