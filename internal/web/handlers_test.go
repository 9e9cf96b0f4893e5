package web_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/table"
	"github.com/qartha/idfportal/internal/web"
)

func TestIDFLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, idfsPath, map[string]any{
		"code":   "IDF-1",
		"title":  "North closet",
		"site":   "Plant 2",
		"images": "https://cdn.example.com/a.jpg",
	}, asAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.IDF](t, rec)
	assert.Equal(t, "Sabinas Project", created.Project)
	require.Len(t, created.Images, 1)

	rec = ts.do(t, http.MethodPost, idfsPath, map[string]any{"code": "IDF-1", "title": "Again"}, asAdmin)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "IDF002", decode[web.ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodGet, idfsPath+"/IDF-1", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "North closet", decode[core.IDF](t, rec).Title)

	rec = ts.do(t, http.MethodPut, idfsPath+"/IDF-1", map[string]any{"title": "North closet B", "room": "B12"}, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[core.IDF](t, rec)
	assert.Equal(t, "North closet B", updated.Title)
	assert.Equal(t, "B12", updated.Room)

	rec = ts.do(t, http.MethodDelete, idfsPath+"/IDF-1", nil, asAdmin)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, idfsPath+"/IDF-1", nil, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IDF001", decode[web.ErrorResponse](t, rec).Code)
}

func TestCreateIDF_Invalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, idfsPath, map[string]any{"code": "IDF-1"}, asAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/Nowhere/sabinas/idfs", map[string]any{"code": "A", "title": "A"}, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IDF003", decode[web.ErrorResponse](t, rec).Code)
}

func TestListIDFs(t *testing.T) {
	ts := newTestServer(t)
	for _, code := range []string{"C", "A", "B"} {
		ts.createIDF(t, code)
	}
	rec := ts.do(t, http.MethodPost, idfsPath+"/B/table", nil, asAdmin)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodGet, idfsPath+"?include_health=true", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]core.IDFIndex](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].Code)
	require.NotNil(t, list[0].Health)
	assert.Equal(t, table.LevelGray, list[0].Health.Level)

	rec = ts.do(t, http.MethodGet, idfsPath+"?limit=1&skip=1", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]core.IDFIndex](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, "B", page[0].Code)
	assert.Nil(t, page[0].Health)

	rec = ts.do(t, http.MethodGet, idfsPath+"?q=idf%20c", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.IDFIndex](t, rec), 1)

	rec = ts.do(t, http.MethodGet, idfsPath+"?limit=abc", nil, asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, idfsPath+"?limit=1000", nil, asAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTableEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createIDF(t, "IDF-1")
	tablePath := idfsPath + "/IDF-1/table"

	rec := ts.do(t, http.MethodGet, tablePath, nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, table.LevelGray, decode[core.TableView](t, rec).Health.Level)

	rec = ts.do(t, http.MethodPost, tablePath+"/rows", nil, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TBL004", decode[web.ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodPost, tablePath, nil, asAdmin)
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode[core.TableView](t, rec)
	assert.Len(t, view.Table.Columns, 8)
	assert.Empty(t, view.Table.Rows)

	rec = ts.do(t, http.MethodPost, tablePath, nil, asAdmin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, tablePath+"/rows", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodPost, tablePath+"/rows", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[core.TableView](t, rec).Table.Rows, 2)

	rec = ts.do(t, http.MethodPatch, tablePath+"/cells", map[string]any{"row": 0, "key": "status", "value": "falla"}, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[core.TableView](t, rec)
	assert.Equal(t, table.LevelRed, view.Health.Level)
	assert.Equal(t, 1, view.Health.Counts.Falla)

	rec = ts.do(t, http.MethodPatch, tablePath+"/cells", map[string]any{"row": 0, "key": "nope", "value": "x"}, asAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "TBL002", decode[web.ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodPatch, tablePath+"/cells", map[string]any{"row": 9, "key": "status", "value": "ok"}, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TBL001", decode[web.ErrorResponse](t, rec).Code)

	rec = ts.do(t, http.MethodPatch, tablePath+"/cells", map[string]any{"key": "status", "value": "ok"}, asAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodDelete, tablePath+"/rows/0", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[core.TableView](t, rec)
	assert.Len(t, view.Table.Rows, 1)

	rec = ts.do(t, http.MethodDelete, tablePath+"/rows/5", nil, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodDelete, tablePath+"/rows/x", nil, asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReplaceTable(t *testing.T) {
	ts := newTestServer(t)
	ts.createIDF(t, "IDF-1")
	tablePath := idfsPath + "/IDF-1/table"

	rec := ts.do(t, http.MethodPut, tablePath, map[string]any{
		"columns": []map[string]any{
			{"key": "port", "label": "Port", "type": "number"},
			{"key": "status", "label": "Status", "type": "status"},
		},
		"rows": []map[string]any{{"port": 1, "status": "ok"}, {"port": 2, "status": "revision"}},
	}, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, table.LevelYellow, decode[core.TableView](t, rec).Health.Level)

	rec = ts.do(t, http.MethodPut, tablePath, map[string]any{
		"columns": []map[string]any{{"key": "a", "label": "A"}, {"key": "a", "label": "A again"}},
		"rows":    []any{},
	}, asAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "TBL003", decode[web.ErrorResponse](t, rec).Code)
}

func TestDeviceEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createIDF(t, "IDF-1")

	rec := ts.do(t, http.MethodGet, "/api/devices/template.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "name,model,serial,rack,site,notes\n", rec.Body.String())

	csv := "name,model,serial,rack,site,notes\n" +
		"sw-01,C9300,FOC1,R1,Plant 2,\n" +
		",C9300,FOC2,R1,Plant 2,no name\n" +
		"sw-02,C9300,FOC3,R2,Plant 2,\n"
	rec = ts.upload(t, "/api/Trinity/sabinas/devices/upload_csv?code=IDF-1",
		filePart{"file", "devices.csv", "text/csv", []byte(csv)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[core.DeviceImportResult](t, rec)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 3, result.Failed[0].Line)

	rec = ts.do(t, http.MethodPost, "/api/Trinity/sabinas/devices", []map[string]any{
		{"idf_code": "IDF-1", "name": "ap-01", "model": "C9120"},
	}, asAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, idfsPath+"/IDF-1/devices", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Device](t, rec), 3)

	rec = ts.upload(t, "/api/Trinity/sabinas/devices/upload_csv",
		filePart{"file", "devices.csv", "text/csv", []byte(csv)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.upload(t, "/api/Trinity/sabinas/devices/upload_csv?code=IDF-1",
		filePart{"file", "devices.txt", "text/plain", []byte(csv)})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.upload(t, "/api/Trinity/sabinas/devices/upload_csv?code=IDF-1",
		filePart{"file", "devices.csv", "text/csv", []byte("foo,bar\n1,2\n")})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "CSV002", decode[web.ErrorResponse](t, rec).Code)
}

func TestAssetEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.createIDF(t, "IDF-1")
	assets := idfsPath + "/IDF-1/assets"

	rec := ts.upload(t, assets+"/images",
		filePart{"files", "a.png", "image/png", pngHeader},
		filePart{"files", "b.png", "image/png", pngHeader},
	)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[core.IDF](t, rec).Images, 2)

	rec = ts.upload(t, assets+"/images", filePart{"files", "notes.txt", "text/plain", []byte("hello")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "AST002", decode[web.ErrorResponse](t, rec).Code)

	rec = ts.upload(t, assets+"/logo", filePart{"file", "logo.png", "image/png", pngHeader})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decode[core.IDF](t, rec).Logo)

	rec = ts.upload(t, assets+"/bogus", filePart{"files", "a.png", "image/png", pngHeader})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, assets+"/images/0", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[core.IDF](t, rec).Images, 1)

	rec = ts.do(t, http.MethodDelete, assets+"/images/4", nil, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "AST001", decode[web.ErrorResponse](t, rec).Code)
}

func TestQRCode(t *testing.T) {
	ts := newTestServer(t)
	ts.createIDF(t, "IDF-1")

	rec := ts.do(t, http.MethodGet, idfsPath+"/IDF-1/qr.png", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader[:8], rec.Body.Bytes()[:8])

	rec = ts.do(t, http.MethodGet, idfsPath+"/missing/qr.png", nil, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
