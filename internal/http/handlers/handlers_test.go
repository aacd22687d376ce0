package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/tabula-backend/internal/data/repos"
	"github.com/yungbote/tabula-backend/internal/data/repos/testutil"
	"github.com/yungbote/tabula-backend/internal/http/middleware"
	"github.com/yungbote/tabula-backend/internal/services"
)

const pricesCSV = "name,price\na,10\nb,20\nc,30\n"

func newTestRouter(t *testing.T, maxUploadBytes int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database := testutil.DB(t)
	log := testutil.Logger(t)

	authSvc := services.NewAuthService(log, repos.NewUserRepo(database, log), "handler-secret", time.Hour)
	datasetSvc := services.NewDatasetService(database, log,
		repos.NewMetadataRepo(database, log),
		repos.NewRecordRepo(database, log),
		services.DatasetServiceOptions{MaxUploadBytes: maxUploadBytes},
	)
	authHandler := NewAuthHandler(authSvc)
	datasetHandler := NewDatasetHandler(log, datasetSvc, maxUploadBytes)
	authMW := middleware.NewAuthMiddleware(log, authSvc)

	r := gin.New()
	r.GET("/healthcheck", NewHealthHandler().HealthCheck)
	r.POST("/api/auth/signup", authHandler.Signup)
	r.POST("/api/auth/login", authHandler.Login)
	r.GET("/api/protected", authMW.RequireAuth(), authHandler.Protected)
	r.POST("/api/data/upload", datasetHandler.Upload)
	r.GET("/api/data/aggregate", datasetHandler.Aggregate)
	r.GET("/api/data/filter", datasetHandler.Filter)
	r.GET("/api/data/datasets", datasetHandler.List)
	r.GET("/api/data/schema", datasetHandler.Schema)
	return r
}

func doJSON(r http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, r http.Handler, path, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "-" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "x"))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode[map[string]map[string]string](t, rec)
	return env["error"]["message"]
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, 0)
	rec := doJSON(r, http.MethodGet, "/healthcheck", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t, 0)
	signup := map[string]string{"username": "ada", "email": "ada@example.com", "password": "pw"}

	rec := doJSON(r, http.MethodPost, "/api/auth/signup", signup, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "User created successfully", decode[map[string]string](t, rec)["message"])

	rec = doJSON(r, http.MethodPost, "/api/auth/signup", signup, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", errorMessage(t, rec))

	rec = doJSON(r, http.MethodPost, "/api/auth/signup", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{"username": "ada", "password": "bad"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", errorMessage(t, rec))

	rec = doJSON(r, http.MethodPost, "/api/auth/login", map[string]string{"username": "ada", "password": "pw"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[services.LoginResult](t, rec)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.EqualValues(t, 3600, login.ExpiresIn)

	rec = doJSON(r, http.MethodGet, "/api/protected", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/protected", nil, http.Header{"Authorization": {"Bearer " + login.AccessToken}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(decode[map[string]string](t, rec)["message"], "Hello, user "))
}

func TestUploadAndQuery(t *testing.T) {
	r := newTestRouter(t, 1<<20)

	rec := upload(t, r, "/api/data/upload", "prices.csv", pricesCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.UploadResult](t, rec)
	assert.Equal(t, services.UploadSuccessMessage, res.Message)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, map[string]string{"name": "object", "price": "int64"}, res.Schema)

	rec = upload(t, r, "/api/data/upload", "prices.csv", pricesCSV)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = upload(t, r, "/api/data/upload?replace=true", "prices.csv", pricesCSV+"d,40\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, decode[services.UploadResult](t, rec).Rows)

	rec = doJSON(r, http.MethodGet, "/api/data/aggregate?filename=prices.csv&column=price&operation=sum", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"sum": float64(100)}, decode[map[string]any](t, rec))

	rec = doJSON(r, http.MethodGet, "/api/data/aggregate?filename=prices.csv&column=price&operation=median", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid operation 'median'", errorMessage(t, rec))

	rec = doJSON(r, http.MethodGet, "/api/data/aggregate?filename=missing.csv&column=price&operation=sum", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/data/filter?filename=prices.csv&column=price&value=15&operator=%3E", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decode[[]map[string]any](t, rec)
	require.Len(t, rows, 3)
	assert.Equal(t, "b", rows[0]["name"])

	rec = doJSON(r, http.MethodGet, "/api/data/filter?filename=prices.csv&column=price&value=1000&operator=gt", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/data/datasets", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]services.DatasetSummary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].RowCount)

	rec = doJSON(r, http.MethodGet, "/api/data/schema?filename=prices.csv", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"name", "price"}, decode[services.DatasetSummary](t, rec).Columns)

	rec = doJSON(r, http.MethodGet, "/api/data/schema", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAggregateRendersExactNumbers(t *testing.T) {
	r := newTestRouter(t, 1<<20)

	rec := upload(t, r, "/api/data/upload", "big.csv", "x\n9007199254740993\n0\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(r, http.MethodGet, "/api/data/aggregate?filename=big.csv&column=x&operation=sum", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"sum":9007199254740993}`, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "9007199254740993")
}

func TestUploadRejections(t *testing.T) {
	r := newTestRouter(t, 64)

	rec := upload(t, r, "/api/data/upload", "-", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file part", errorMessage(t, rec))

	rec = upload(t, r, "/api/data/upload", "", pricesCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No selected file", errorMessage(t, rec))

	rec = upload(t, r, "/api/data/upload", "notes.txt", pricesCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File type not allowed", errorMessage(t, rec))

	rec = upload(t, r, "/api/data/upload", "big.csv", "a\n"+strings.Repeat("1\n", 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = upload(t, r, "/api/data/upload", "bad.csv", "a,b\n1,2,3\n")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "error tokenizing data")

	rec = doJSON(r, http.MethodGet, "/api/data/datasets", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]services.DatasetSummary](t, rec))
}
