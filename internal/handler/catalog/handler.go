package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	"github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
	"github.com/zhouzirui/investor-interview/backend/pkg/utils"
)

// Handler 组合与问卷目录的HTTP处理器
type Handler struct {
	portfolios portfolio.Catalog
}

// New 创建目录处理器
func New(portfolios portfolio.Catalog) *Handler {
	return &Handler{
		portfolios: portfolios,
	}
}

// RegisterRoutes 注册目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios", h.handleListPortfolios)
	r.Get("/portfolios/{id}", h.handleGetPortfolio)
	r.Get("/interview/questions", h.handleListQuestions)
}

// portfolioView 带上 id 的组合视图；最终结果里的组合不带 id
type portfolioView struct {
	ID portfolio.ID `json:"id"`
	portfolio.Portfolio
}

func toView(p portfolio.Portfolio) portfolioView {
	return portfolioView{ID: p.ID, Portfolio: p}
}

// handleListPortfolios 列出所有组合
func (h *Handler) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	items := h.portfolios.List()
	views := make([]portfolioView, 0, len(items))
	for _, item := range items {
		views = append(views, toView(item))
	}
	utils.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id := portfolio.ID(chi.URLParam(r, "id"))
	item, ok := h.portfolios.Find(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "portfolio not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, toView(item))
}

// handleListQuestions 返回固定的问题目录，前端复核页使用
func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, interview.Questions())
}
