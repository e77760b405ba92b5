package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optistock/replenish/internal/api"
	"github.com/optistock/replenish/internal/cache"
	"github.com/optistock/replenish/internal/config"
	"github.com/optistock/replenish/internal/domain"
	"github.com/optistock/replenish/internal/engine"
	"github.com/optistock/replenish/internal/ingest"
	"github.com/optistock/replenish/internal/rules"
	"github.com/optistock/replenish/internal/service"
	"github.com/optistock/replenish/internal/storage"
)

const runDate = "2026-08-24"

func writeHistoryDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.csv"),
		[]byte("code,name,category\n301234,Daily Lens,daily_lens\n"), 0o644))

	end, err := time.Parse("2006-01-02", runDate)
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString("date,stock_level,units_sold\n")
	for i := 59; i >= 0; i-- {
		day := end.AddDate(0, 0, -i)
		fmt.Fprintf(&b, "%s,120,%d\n", day.Format("2006-01-02"), 4+i%3)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "301234.csv"), []byte(b.String()), 0o644))

	return dir
}

func buildTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.EngineConfig{
		MinPoints:          30,
		TopModels:          2,
		FitThreshold:       0.5,
		FallbackConfidence: 0.3,
		MaxConfidence:      0.95,
		Workers:            2,
		LookaheadDays:      45,
		ForestSeed:         42,
		HorizonDays:        30,
	}

	provider := ingest.NewFileProvider(writeHistoryDir(t))
	orchestrator := engine.NewOrchestrator(cfg, provider, provider, provider, rules.NewCatalog())

	store, err := storage.NewLocalClient(t.TempDir())
	require.NoError(t, err)

	decisionService := service.NewDecisionService(
		orchestrator,
		cache.NewNoopDecisionCache(),
		storage.NewArchiver(store),
	)

	return api.NewRouter(&api.Services{DecisionService: decisionService}, nil)
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := buildTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunBatchAndReadBack(t *testing.T) {
	router := buildTestRouter(t)

	rec := doRequest(router, http.MethodPost, "/api/v1/decisions/run",
		fmt.Sprintf(`{"date":"%s"}`, runDate))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var batch domain.DecisionBatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, 1, batch.Summary.ProductsEvaluated)
	require.Len(t, batch.Recommendations, 1)
	assert.Equal(t, "301234", batch.Recommendations[0].ProductCode)

	// The run is archived, so the date endpoints serve it back.
	rec = doRequest(router, http.MethodGet, "/api/v1/decisions/"+runDate, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded domain.DecisionBatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loaded))
	assert.Equal(t, batch.Summary, loaded.Summary)

	rec = doRequest(router, http.MethodGet, "/api/v1/decisions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), runDate)
}

func TestGetBatchValidation(t *testing.T) {
	router := buildTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/v1/decisions/not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/v1/decisions/2020-01-01", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetForecast(t *testing.T) {
	router := buildTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/v1/products/301234/forecast?as_of="+runDate, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var forecast domain.ForecastResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &forecast))
	assert.Equal(t, "301234", forecast.ProductCode)
	assert.Greater(t, forecast.DailyDemand, 0.0)

	rec = doRequest(router, http.MethodGet, "/api/v1/products/999999/forecast?as_of="+runDate, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
