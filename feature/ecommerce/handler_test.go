package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"regexp"
	"testing"

	"ecomm-sync/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *Store) {
	app := fiber.New()
	store := setupStore(t)
	handler := NewHandler(NewService(store, zap.NewNop()))
	handler.RegisterRoutes(app)
	return app, store
}

func seedRecords(t *testing.T, store *Store) {
	failed := pendingRecord("T2", "O2", "b@example.com")
	failed.Status = reconcile.StatusError
	failed.Response = "API error status: 500 boom"
	ambiguous := pendingRecord("T3", "O3", "c@example.com")
	ambiguous.Status = reconcile.StatusAmbiguous
	require.NoError(t, store.Stage(context.Background(), pendingRecord("T1", "O1", "a@example.com"), failed, ambiguous))
}

func TestHandleGetRecord(t *testing.T) {
	app, store := setupTestApp(t)
	seedRecords(t, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/T2", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "T2", body["transaction_id"])
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "API error status: 500 boom", body["response"])
}

func TestHandleGetRecord_NotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHandleListRecords(t *testing.T) {
	app, store := setupTestApp(t)
	seedRecords(t, store)

	tests := []struct {
		query string
		code  int
		count int
	}{
		{"/records", 200, 1},
		{"/records?status=pending", 200, 1},
		{"/records?status=Z", 200, 1},
		{"/records?status=updated", 200, 0},
		{"/records?status=bogus", 400, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
			if tt.code != 200 {
				return
			}

			var body struct {
				Count   int            `json:"count"`
				Records []StagedRecord `json:"records"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.count, body.Count)
			assert.Len(t, body.Records, tt.count)
		})
	}
}

func TestHandleSummary(t *testing.T) {
	app, store := setupTestApp(t)
	seedRecords(t, store)

	resp, err := app.Test(httptest.NewRequest("GET", "/records/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]int64{"pending": 1, "error": 1, "ambiguous": 1}, body)
}

func TestHandleSummary_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	app := fiber.New()
	NewHandler(NewService(NewStore(db), nil)).RegisterRoutes(app)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT order_update_status, COUNT(*) AS n FROM `ecomm_order_staging`")).
		WillReturnError(errors.New("server has gone away"))

	resp, err := app.Test(httptest.NewRequest("GET", "/records/summary", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoader(t *testing.T) {
	feature := NewFeature(setupStore(t), zap.NewNop())

	assert.Equal(t, "records", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	assert.NoError(t, feature.Load(app))
}

func TestService_RecordsCapsLimit(t *testing.T) {
	store := setupStore(t)
	seedRecords(t, store)
	svc := NewService(store, nil)

	records, err := svc.Records(context.Background(), reconcile.StatusPending, 10_000)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
