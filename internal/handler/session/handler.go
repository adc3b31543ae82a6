package session

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	sessionService "github.com/zhouzirui/investor-interview/backend/internal/service/session"
	"github.com/zhouzirui/investor-interview/backend/pkg/utils"
)

const maxEnvelopeBytes = 1 << 20

// Handler 会话快照存取的HTTP处理器
type Handler struct {
	store sessionService.Store
}

// New 创建会话处理器
func New(store sessionService.Store) *Handler {
	return &Handler{
		store: store,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{slot}", h.handleLoad)
	r.Put("/sessions/{slot}", h.handleSave)
	r.Delete("/sessions/{slot}", h.handleClear)
}

// handleLoad 读取快照
func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")

	session, err := h.store.Load(r.Context(), slot)
	if err != nil {
		h.respondStoreError(w, slot, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

// handleSave 保存快照，覆盖同一槽位的旧快照
func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := interview.DecodeSession(body)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Save(r.Context(), slot, session); err != nil {
		h.respondStoreError(w, slot, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

// handleClear 删除快照
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "slot")

	if err := h.store.Clear(r.Context(), slot); err != nil {
		h.respondStoreError(w, slot, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondStoreError(w http.ResponseWriter, slot string, err error) {
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, sessionService.ErrInvalidSlot):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[session] store error slot=%s: %v", slot, err)
		utils.RespondError(w, http.StatusInternalServerError, "session store unavailable")
	}
}
