package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/middleware"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
)

type fakeIncidentSrv struct {
	createResp *dto.CreateIncidentResponse
	createErr  error
	createdReq dto.CreateIncidentRequest

	getResp     *dto.IncidentAggregate
	getDegraded []string
	getErr      error
	getID       string

	listResp   []dto.IncidentDetail
	listFilter models.IncidentFilter
}

func (f *fakeIncidentSrv) Create(_ context.Context, req dto.CreateIncidentRequest) (*dto.CreateIncidentResponse, error) {
	f.createdReq = req
	return f.createResp, f.createErr
}

func (f *fakeIncidentSrv) Get(_ context.Context, rawID string, claims *models.JWTClaims) (*dto.IncidentAggregate, []string, error) {
	f.getID = rawID
	return f.getResp, f.getDegraded, f.getErr
}

func (f *fakeIncidentSrv) List(_ context.Context, filter models.IncidentFilter, claims *models.JWTClaims) ([]dto.IncidentDetail, *models.Pagination, error) {
	f.listFilter = filter
	return f.listResp, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func TestIncidentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeIncidentSrv{createResp: &dto.CreateIncidentResponse{Success: true, ReportID: 42}}
	handler := NewIncidentHandler(service)

	body := `{"student_id":"S1","details":"fell in playground","notifyStaff":[7]}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/incidents", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "S1", service.createdReq.StudentID)
	assert.Equal(t, []int64{7}, service.createdReq.NotifyStaff)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(42), envelope.Data["reportId"])
}

func TestIncidentHandlerCreateMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewIncidentHandler(&fakeIncidentSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/incidents", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIncidentHandlerGetReportsDegradedSections(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeIncidentSrv{
		getResp:     &dto.IncidentAggregate{Incident: dto.IncidentDetail{Incident: models.Incident{ID: 9}}},
		getDegraded: []string{"attachments"},
	}
	handler := NewIncidentHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/incidents/9", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 7, Role: models.RoleDSL})

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9", service.getID)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, []interface{}{"attachments"}, envelope.Meta["degraded_sections"])
}

func TestIncidentHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewIncidentHandler(&fakeIncidentSrv{
		getErr: appErrors.Clone(appErrors.ErrNotFound, "incident report not found"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/incidents/404", nil)
	c.Params = gin.Params{{Key: "id", Value: "404"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIncidentHandlerListParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeIncidentSrv{listResp: []dto.IncidentDetail{}}
	handler := NewIncidentHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/incidents?category_id=3&urgent=true&student_id=S1&date_from=2026-01-01&page=2&limit=10", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 7, Role: models.RoleAdmin})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, service.listFilter.CategoryID)
	assert.Equal(t, 3, *service.listFilter.CategoryID)
	require.NotNil(t, service.listFilter.Urgent)
	assert.True(t, *service.listFilter.Urgent)
	assert.Equal(t, "S1", service.listFilter.StudentID)
	require.NotNil(t, service.listFilter.DateFrom)
	assert.Equal(t, 2, service.listFilter.Page)
	assert.Equal(t, 10, service.listFilter.PageSize)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
