package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigsync/backend/config"
	"github.com/rigsync/backend/internal/domain"
	"github.com/rigsync/backend/internal/infrastructure/memory"
	"github.com/rigsync/backend/internal/infrastructure/spreadsheet"
	"github.com/rigsync/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const inventoryCSV = "Qty,Description,Software code\n2,Robe LEDBeam 150,\n1,Microphone,\n"

type testServer struct {
	router    *gin.Engine
	stock     *memory.StockStore
	product   domain.CatalogProduct
	userID    uuid.UUID
	companyID uuid.UUID
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	product := domain.CatalogProduct{
		ID:             uuid.New(),
		Category:       "Lighting",
		SubCategory:    "Moving Head",
		Brand:          "Robe",
		Model:          "LEDBeam 150",
		IdentifierCode: "PSM00001",
		Verified:       true,
	}
	catalog, err := memory.NewCatalogStore(product)
	require.NoError(t, err)
	stock, sessions := memory.NewStockStore(), memory.NewSessionStore()
	service := usecase.NewImportService(
		catalog,
		sessions,
		memory.NewTransactor(catalog, stock, sessions),
		memory.NewLocker(0),
		usecase.ImportConfig{},
		nil,
	)
	handler := NewHandler(service, spreadsheet.NewReader(0), nil)

	return &testServer{
		router:    SetupRouter(cfg, handler, nil),
		stock:     stock,
		product:   product,
		userID:    uuid.New(),
		companyID: uuid.New(),
	}
}

func (s *testServer) upload(t *testing.T, path string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "inventory.csv")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(HeaderUserID, s.userID.String())
	req.Header.Set(HeaderCompanyID, s.companyID.String())
	return s.serve(req)
}

func (s *testServer) do(t *testing.T, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *testServer) stage(t *testing.T) usecase.SessionDetails {
	t.Helper()
	w := s.upload(t, "/api/v1/imports", []byte(inventoryCSV))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[usecase.SessionDetails](t, w)
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		s := setupTestServer(t)

		w := s.do(t, http.MethodGet, "/health", nil)
		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		response := decode[map[string]interface{}](t, w)
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "rigsync-backend" {
			t.Errorf("service = %v, want rigsync-backend", response["service"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		s := setupTestServer(t)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := s.do(t, method, "/health", nil)
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestImportLifecycle(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	staged := s.stage(t)
	assert.Equal(t, domain.SessionActive, staged.Session.Status)
	assert.Equal(t, 1, staged.Session.ValidRows)
	assert.Equal(t, 1, staged.Session.RejectedRows)
	require.Len(t, staged.Rows, 2)
	assert.Equal(t, 2, staged.Rows[0].RowNumber)
	assert.Equal(t, domain.RowRejected, staged.Rows[1].Status)

	base := "/api/v1/imports/" + staged.Session.ID.String()

	w := s.do(t, http.MethodPost, base+"/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	analyzed := decode[usecase.SessionDetails](t, w)
	require.NotEmpty(t, analyzed.Rows[0].Candidates)
	top := analyzed.Rows[0].Candidates[0]
	assert.Equal(t, s.product.ID, top.ProductID)
	assert.Equal(t, domain.MatchExactDescription, top.MatchType)

	w = s.do(t, http.MethodPost, base+"/confirm", gin.H{
		"items": []gin.H{{"row": 2, "action": "attach"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[usecase.ConfirmResult](t, w)
	assert.Equal(t, 1, result.Attached)
	assert.Equal(t, 0, result.Pending)
	assert.Empty(t, result.Errors)
	assert.Equal(t, domain.SessionConfirmed, result.Session.Status)

	record, err := s.stock.FindStock(ctx, s.userID, s.companyID, s.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, record.Quantity)

	w = s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	details := decode[usecase.SessionDetails](t, w)
	assert.Equal(t, domain.RowConfirmed, details.Rows[0].Status)

	// a finalized session refuses further work
	w = s.do(t, http.MethodPost, base+"/confirm", gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConfirm_RowErrorsAreReported(t *testing.T) {
	s := setupTestServer(t)
	staged := s.stage(t)
	base := "/api/v1/imports/" + staged.Session.ID.String()

	w := s.do(t, http.MethodPost, base+"/confirm", gin.H{
		"items": []gin.H{
			{"row": 9, "action": "attach"},
			{"row": 2, "action": "attach", "product_id": uuid.New().String()},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[usecase.ConfirmResult](t, w)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, domain.ErrorTypeRowNotFound, result.Errors[0].ErrorType)
	assert.Equal(t, domain.ErrorTypeProductNotFound, result.Errors[1].ErrorType)
	assert.Equal(t, 1, result.Pending)
	assert.Equal(t, domain.SessionActive, result.Session.Status)
}

func TestSkipAndCancel(t *testing.T) {
	s := setupTestServer(t)
	staged := s.stage(t)
	base := "/api/v1/imports/" + staged.Session.ID.String()

	w := s.do(t, http.MethodPut, base+"/rows/2/skip", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[domain.ImportRow](t, w).Skipped)

	w = s.do(t, http.MethodPut, base+"/rows/2/skip", gin.H{"skipped": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[domain.ImportRow](t, w).Skipped)

	w = s.do(t, http.MethodPut, base+"/rows/40/skip", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, base+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.SessionCancelled, decode[domain.ImportSession](t, w).Status)

	w = s.do(t, http.MethodPost, base+"/analyze", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRestage(t *testing.T) {
	s := setupTestServer(t)
	staged := s.stage(t)
	path := "/api/v1/imports/" + staged.Session.ID.String() + "/upload"

	w := s.upload(t, path, []byte("Qty,Description\n3,Shure SM58 vocal microphone\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	restaged := decode[usecase.SessionDetails](t, w)
	assert.Equal(t, staged.Session.ID, restaged.Session.ID)
	require.Len(t, restaged.Rows, 1)
	assert.Equal(t, 3, restaged.Rows[0].Quantity)
}

func TestRequestErrors(t *testing.T) {
	s := setupTestServer(t)
	unknown := "/api/v1/imports/" + uuid.New().String()

	tests := []struct {
		name       string
		request    func() *httptest.ResponseRecorder
		wantStatus int
	}{
		{
			name: "missing identity headers",
			request: func() *httptest.ResponseRecorder {
				return s.do(t, http.MethodPost, "/api/v1/imports", nil)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "missing file field",
			request: func() *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", strings.NewReader(""))
				req.Header.Set(HeaderUserID, s.userID.String())
				req.Header.Set(HeaderCompanyID, s.companyID.String())
				return s.serve(req)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unsupported file",
			request: func() *httptest.ResponseRecorder {
				return s.upload(t, "/api/v1/imports", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "no valid rows",
			request: func() *httptest.ResponseRecorder {
				return s.upload(t, "/api/v1/imports", []byte("Qty,Description\n1,Microphone\n"))
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "invalid session id",
			request: func() *httptest.ResponseRecorder {
				return s.do(t, http.MethodGet, "/api/v1/imports/not-a-uuid", nil)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown session",
			request: func() *httptest.ResponseRecorder {
				return s.do(t, http.MethodPost, unknown+"/analyze", nil)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "malformed confirm body",
			request: func() *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodPost, unknown+"/confirm", strings.NewReader("{"))
				req.Header.Set("Content-Type", "application/json")
				return s.serve(req)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "invalid row number",
			request: func() *httptest.ResponseRecorder {
				return s.do(t, http.MethodPut, unknown+"/rows/zero/skip", nil)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.request()
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("loading: %w", domain.ErrRowNotFound), http.StatusNotFound},
		{domain.ErrSessionFinalized, http.StatusConflict},
		{domain.ErrSessionCancelled, http.StatusConflict},
		{domain.ErrLockTimeout, http.StatusConflict},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrTooManyRows, http.StatusUnprocessableEntity},
		{domain.ErrEmptyFile, http.StatusUnprocessableEntity},
		{domain.ErrNoValidRows, http.StatusUnprocessableEntity},
		{domain.ErrUnsupportedFormat, http.StatusUnprocessableEntity},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	s := setupTestServer(t)
	s.router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := s.do(t, http.MethodGet, "/panic", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := s.serve(req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), HeaderCompanyID) {
		t.Errorf("Access-Control-Allow-Headers = %q, want it to include %s", w.Header().Get("Access-Control-Allow-Headers"), HeaderCompanyID)
	}
}
