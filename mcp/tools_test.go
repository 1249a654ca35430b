package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lukman83/pricehub/internal/catalogapi"
	"github.com/lukman83/pricehub/internal/compare"
	"github.com/lukman83/pricehub/internal/listing"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
	{"id":"l1","brand":"Dell","name":"XPS 13","category":"windows-laptops","specs":{"processor":"Intel Core i7"},"offers":[{"retailer":"A","price":1200}]},
	{"id":"l2","brand":"HP","name":"Spectre x360","category":"windows-laptops","specs":{"processor":"Intel Core i5"},"offers":[{"retailer":"B","price":1400}]},
	{"id":"m1","brand":"LG","name":"UltraGear 27","category":"gaming-monitors","offers":[{"retailer":"C","price":400}]}
]`

func newTools(t *testing.T) *tools {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(catalogJSON))
	}))
	t.Cleanup(srv.Close)
	return &tools{deps: Deps{Source: catalogapi.NewAPISource(srv.Client(), srv.URL, 2), PerPage: 12}}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestListProducts_FiltersBrand(t *testing.T) {
	tl := newTools(t)

	res, err := tl.handleListProducts(context.Background(), call(map[string]any{
		"category": "windows",
		"brand":    "hp",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var view listing.View
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &view))
	require.Len(t, view.Page.Items, 1)
	assert.Equal(t, "l2", view.Page.Items[0].ID)
}

func TestListProducts_BadSortIsToolError(t *testing.T) {
	tl := newTools(t)

	res, err := tl.handleListProducts(context.Background(), call(map[string]any{"sort": "cheapest"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSearchProducts_RequiresQuery(t *testing.T) {
	tl := newTools(t)

	res, err := tl.handleSearchProducts(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "query is required", resultText(t, res))
}

func TestCompareProducts_WarnsOnMonitorMix(t *testing.T) {
	tl := newTools(t)

	res, err := tl.handleCompareProducts(context.Background(), call(map[string]any{
		"ids": []any{"l1", "m1"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out struct {
		Breadcrumb string        `json:"breadcrumb"`
		Table      compare.Table `json:"table"`
		Warnings   []string      `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "XPS 13", out.Breadcrumb)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "Gaming monitors")
}

func TestPriceAlertPreview(t *testing.T) {
	tl := newTools(t)

	res, err := tl.handlePriceAlertPreview(context.Background(), call(map[string]any{
		"product_id": "l1",
		"email":      "a@example.com",
	}))
	require.NoError(t, err)

	var out struct {
		Form struct {
			TargetPrice float64 `json:"targetPrice"`
		} `json:"form"`
		CanSubmit bool              `json:"can_submit"`
		Errors    map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, 1080.0, out.Form.TargetPrice)
	assert.True(t, out.CanSubmit)
	assert.Empty(t, out.Errors)
}

func TestPriceAlertPreview_TargetAboveCurrent(t *testing.T) {
	tl := newTools(t)

	res, err := tl.handlePriceAlertPreview(context.Background(), call(map[string]any{
		"product_id":          "l1",
		"target_price":        1500.0,
		"notification_method": "browser",
	}))
	require.NoError(t, err)

	var out struct {
		CanSubmit bool              `json:"can_submit"`
		Errors    map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.False(t, out.CanSubmit)
	assert.Equal(t, "Target price cannot be higher than the current price", out.Errors["targetPrice"])
}

func TestBearerAuth(t *testing.T) {
	h := newHTTPHandler("secret", Deps{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
