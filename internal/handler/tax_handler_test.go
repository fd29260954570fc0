package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taxmanager/internal/middleware"
	"taxmanager/internal/model"
	"taxmanager/internal/service"
	"taxmanager/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTaxService records which mutating calls actually reached the
// service layer, so the tests can tell a rejected request apart from a
// silently handled one.
type stubTaxService struct {
	transitions int
	advances    int
}

func (s *stubTaxService) CreateTax(_ context.Context, _ service.CreateTaxRequest, _ string) (service.TaxResponse, error) {
	return service.TaxResponse{}, nil
}

func (s *stubTaxService) GetTax(_ context.Context, id string) (service.TaxResponse, error) {
	return service.TaxResponse{ID: id}, nil
}

func (s *stubTaxService) ListTaxes(_ context.Context, _ service.TaxListFilter) ([]service.TaxResponse, int64, error) {
	return nil, 0, nil
}

func (s *stubTaxService) UpdateTax(_ context.Context, id string, _ service.UpdateTaxRequest, _ string) (service.TaxResponse, error) {
	return service.TaxResponse{ID: id}, nil
}

func (s *stubTaxService) DeleteTax(_ context.Context, _ string, _ string) error {
	return nil
}

func (s *stubTaxService) TransitionStatus(_ context.Context, id string, target workflow.Status, _ string) (service.TaxResponse, error) {
	s.transitions++
	return service.TaxResponse{ID: id, Status: string(target)}, nil
}

func (s *stubTaxService) AdvanceStatus(_ context.Context, id string, _ string) (service.TaxResponse, error) {
	s.advances++
	return service.TaxResponse{ID: id, Status: string(workflow.StatusCompleted)}, nil
}

func newTaxRouter(svc service.TaxService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewTaxHandler(svc).RegisterRoutes(router.Group(""))
	return router
}

func signAccessToken(t *testing.T, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.GetJWTSecret())
	require.NoError(t, err)
	return token
}

func doTaxRequest(t *testing.T, router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestStatusEndpointsRejectNonAdmins verifies the role gate on the two
// workflow mutation routes: a valid token with the regular user role
// must get 403 and the request must never reach the service.
func TestStatusEndpointsRejectNonAdmins(t *testing.T) {
	svc := &stubTaxService{}
	router := newTaxRouter(svc)
	userToken := signAccessToken(t, model.RoleUser)
	taxID := uuid.NewString()

	rec := doTaxRequest(t, router, http.MethodPatch, "/taxes/"+taxID+"/status", `{"status":"completed"}`, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, svc.transitions, "the transition must not reach the service")

	rec = doTaxRequest(t, router, http.MethodPost, "/taxes/"+taxID+"/advance", "", userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, svc.advances, "the advance must not reach the service")
}

func TestStatusEndpointsAllowAdmins(t *testing.T) {
	svc := &stubTaxService{}
	router := newTaxRouter(svc)
	adminToken := signAccessToken(t, model.RoleAdmin)
	taxID := uuid.NewString()

	rec := doTaxRequest(t, router, http.MethodPatch, "/taxes/"+taxID+"/status", `{"status":"completed"}`, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.transitions)

	rec = doTaxRequest(t, router, http.MethodPost, "/taxes/"+taxID+"/advance", "", adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.advances)
}

// Reads stay open to both roles; the gate only narrows mutations of the
// workflow state.
func TestReadEndpointsStayOpenToUsers(t *testing.T) {
	svc := &stubTaxService{}
	router := newTaxRouter(svc)
	userToken := signAccessToken(t, model.RoleUser)

	rec := doTaxRequest(t, router, http.MethodGet, "/taxes", "", userToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doTaxRequest(t, router, http.MethodGet, "/taxes/"+uuid.NewString(), "", userToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaxRoutesRequireAToken(t *testing.T) {
	svc := &stubTaxService{}
	router := newTaxRouter(svc)

	rec := doTaxRequest(t, router, http.MethodPatch, "/taxes/"+uuid.NewString()+"/status", `{"status":"completed"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.transitions)
}
