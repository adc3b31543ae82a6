package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
	"github.com/zhouzirui/investor-interview/backend/internal/model/portfolio"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(portfolio.NewMemoryCatalog(portfolio.MustSeed())).RegisterRoutes(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestListPortfolios(t *testing.T) {
	resp := get(setupRouter(), "/portfolios")
	require.Equal(t, http.StatusOK, resp.Code)

	var items []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "P1", items[0].ID)
	assert.Equal(t, "P2", items[1].ID)
	assert.NotEmpty(t, items[0].Title)
}

func TestGetPortfolio(t *testing.T) {
	r := setupRouter()

	resp := get(r, "/portfolios/P2")
	require.Equal(t, http.StatusOK, resp.Code)

	var item struct {
		ID              string                      `json:"id"`
		AssetAllocation []portfolio.AssetAllocation `json:"assetAllocation"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &item))
	assert.Equal(t, "P2", item.ID)
	assert.NotEmpty(t, item.AssetAllocation)

	assert.Equal(t, http.StatusNotFound, get(r, "/portfolios/P9").Code)
}

func TestListQuestions(t *testing.T) {
	resp := get(setupRouter(), "/interview/questions")
	require.Equal(t, http.StatusOK, resp.Code)

	var questions []interview.Question
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &questions))
	require.Len(t, questions, 11)
	assert.Equal(t, interview.Q1, questions[0].ID)
	assert.Equal(t, interview.FieldRiskToleranceConfirm, questions[10].Field)
}
