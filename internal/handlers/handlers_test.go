package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/summer-camp-school/camp-service/internal/auth"
	"github.com/summer-camp-school/camp-service/internal/config"
	"github.com/summer-camp-school/camp-service/internal/events"
	"github.com/summer-camp-school/camp-service/internal/metrics"
	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/payment"
	"github.com/summer-camp-school/camp-service/internal/repositories"
	"github.com/summer-camp-school/camp-service/internal/repositories/postgres"
	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/testutil"
	"github.com/summer-camp-school/camp-service/internal/utils"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGateway struct {
	err  error
	last *payment.SessionRequest
}

func (g *stubGateway) InitSession(ctx context.Context, req *payment.SessionRequest) (*payment.Session, error) {
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Session{RedirectURL: "https://pay.example/" + req.TranID}, nil
}

type testServer struct {
	router  *gin.Engine
	repo    repositories.Repository
	tokens  *auth.TokenService
	gateway *stubGateway
}

type serverOption func(*HandlerDeps, *MiddlewareConfig)

func withAdminRoleUpdate() serverOption {
	return func(d *HandlerDeps, _ *MiddlewareConfig) { d.RoleUpdateRequiresAdmin = true }
}

func withRateLimit(rl *RateLimiter) serverOption {
	return func(_ *HandlerDeps, m *MiddlewareConfig) { m.RateLimiter = rl }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: testutil.NewTestDB(t)})
	v := validator.New()
	gw := &stubGateway{}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	tokens, err := auth.NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	sm := services.NewServiceManager(repo, gw, events.NewMockEventPublisher(slogger), collector, slogger, v,
		services.ServiceManagerConfig{Payment: config.PaymentConfig{
			Currency:      "BDT",
			ServerBaseURL: "http://api.camp.test",
			SuccessURL:    "http://web.camp.test/payment/success",
			FailURL:       "http://web.camp.test/payment/fail",
		}})

	deps := HandlerDeps{
		Services:  sm,
		Verifier:  tokens,
		Issuer:    tokens,
		Validator: v,
		Logger:    logger,
		Gatherer:  reg,
	}
	mw := MiddlewareConfig{AllowedOrigin: "*", Metrics: collector}
	for _, opt := range opts {
		opt(&deps, &mw)
	}

	router := gin.New()
	SetupMiddleware(router, logger, mw)
	NewHandlerManager(deps).SetupRoutes(router)

	return &testServer{router: router, repo: repo, tokens: tokens, gateway: gw}
}

func (s *testServer) token(t *testing.T, email string) string {
	t.Helper()
	tok, _, err := s.tokens.Issue(email, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (s *testServer) seedUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{Email: email, Role: role}
	if err := s.repo.User().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (s *testServer) seedClass(t *testing.T, seats int) *models.Class {
	t.Helper()
	class := &models.Class{InstructorEmail: "teacher@camp.io", ClassName: "Clay", AvailableSeats: seats, Price: 80}
	if err := s.repo.Class().Create(context.Background(), class); err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return class
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) initiate(t *testing.T, classID string) services.InitiateResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/order/"+classID, s.token(t, "s@camp.io"), map[string]string{"email": "s@camp.io", "name": "S"})
	if w.Code != http.StatusOK {
		t.Fatalf("initiate = %d %s", w.Code, w.Body.String())
	}
	var init services.InitiateResponse
	json.Unmarshal(w.Body.Bytes(), &init)
	return init
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestAuthorize_TokenRequired(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/carts?email=a@camp.io", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
			body := decodeError(t, w)
			if !body.Error || body.Status != http.StatusUnauthorized || body.Message == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestRequireSelf_CartsForAnotherUser(t *testing.T) {
	srv := newTestServer(t)
	tokenB := srv.token(t, "b@x.com")

	w := srv.do(http.MethodGet, "/carts?email=a@x.com", tokenB, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if body := decodeError(t, w); body.Status != http.StatusForbidden || !body.Error {
		t.Errorf("body = %+v", body)
	}

	w = srv.do(http.MethodGet, "/carts?email=b@x.com", tokenB, nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("own cart = %d %s", w.Code, w.Body.String())
	}
}

func TestRequireSelf_ExactComparison(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "a@x.com")

	for _, email := range []string{"A@x.com", "a@x.com ", ""} {
		t.Run(fmt.Sprintf("%q", email), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			q := req.URL.Query()
			q.Set("email", email)
			req.URL.RawQuery = q.Encode()
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", w.Code)
			}
		})
	}
}

func TestRequireRole_AbsentAndWrongRoleLookAlike(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, "student@camp.io", models.RoleStudent)
	srv.seedUser(t, "admin@camp.io", models.RoleAdmin)

	absent := srv.do(http.MethodGet, "/users", srv.token(t, "ghost@camp.io"), nil)
	wrong := srv.do(http.MethodGet, "/users", srv.token(t, "student@camp.io"), nil)

	if absent.Code != http.StatusForbidden || wrong.Code != http.StatusForbidden {
		t.Fatalf("status absent=%d wrong=%d, want 403", absent.Code, wrong.Code)
	}
	if absent.Body.String() != wrong.Body.String() {
		t.Errorf("bodies differ:\n%s\n%s", absent.Body.String(), wrong.Body.String())
	}

	ok := srv.do(http.MethodGet, "/users", srv.token(t, "admin@camp.io"), nil)
	if ok.Code != http.StatusOK {
		t.Errorf("admin status = %d", ok.Code)
	}
}

func TestCheckRole(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, "i@camp.io", models.RoleInstructor)
	tok := srv.token(t, "i@camp.io")

	tests := []struct {
		path string
		key  string
		want bool
	}{
		{"/users/instructor/i@camp.io", "instructor", true},
		{"/users/admin/i@camp.io", "admin", false},
		{"/users/student/i@camp.io", "student", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := srv.do(http.MethodGet, tt.path, tok, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			var body map[string]bool
			json.Unmarshal(w.Body.Bytes(), &body)
			if body[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, body[tt.key], tt.want)
			}
		})
	}

	if w := srv.do(http.MethodGet, "/users/admin/other@camp.io", tok, nil); w.Code != http.StatusForbidden {
		t.Errorf("other user's role check = %d, want 403", w.Code)
	}
}

func TestIssueTokenAndCreateUser(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/jwt", "", map[string]string{"email": "new@camp.io"})
	if w.Code != http.StatusOK {
		t.Fatalf("jwt status = %d", w.Code)
	}
	var tok struct{ Token string }
	json.Unmarshal(w.Body.Bytes(), &tok)
	claims, err := srv.tokens.Verify(tok.Token)
	if err != nil || claims.Email != "new@camp.io" {
		t.Fatalf("issued token = %+v, %v", claims, err)
	}

	if w := srv.do(http.MethodPost, "/jwt", "", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("jwt without email = %d, want 400", w.Code)
	}

	w = srv.do(http.MethodPost, "/users", "", map[string]string{"email": "new@camp.io", "name": "New"})
	var created models.WriteResult
	json.Unmarshal(w.Body.Bytes(), &created)
	if w.Code != http.StatusOK || !created.Acknowledged || created.InsertedID == "" {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}

	w = srv.do(http.MethodPost, "/users", "", map[string]string{"email": "new@camp.io"})
	if !strings.Contains(w.Body.String(), "User Exists") {
		t.Errorf("second create body = %s", w.Body.String())
	}
}

func TestUpdateRole_OpenByDefault(t *testing.T) {
	srv := newTestServer(t)
	u := srv.seedUser(t, "u@camp.io", models.RoleStudent)

	w := srv.do(http.MethodPatch, "/users/"+u.ID, "", map[string]string{"role": "instructor"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"modifiedCount":1`) {
		t.Errorf("body = %s", w.Body.String())
	}

	if w := srv.do(http.MethodPatch, "/users/"+u.ID, "", map[string]string{"role": "root"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid role = %d, want 400", w.Code)
	}
}

func TestUpdateRole_RequiresAdminWhenFlagged(t *testing.T) {
	srv := newTestServer(t, withAdminRoleUpdate())
	u := srv.seedUser(t, "u@camp.io", models.RoleStudent)
	srv.seedUser(t, "admin@camp.io", models.RoleAdmin)

	if w := srv.do(http.MethodPatch, "/users/"+u.ID, "", map[string]string{"role": "admin"}); w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}
	if w := srv.do(http.MethodPatch, "/users/"+u.ID, srv.token(t, "u@camp.io"), map[string]string{"role": "admin"}); w.Code != http.StatusForbidden {
		t.Errorf("self promotion = %d, want 403", w.Code)
	}
	if w := srv.do(http.MethodPatch, "/users/"+u.ID, srv.token(t, "admin@camp.io"), map[string]string{"role": "instructor"}); w.Code != http.StatusOK {
		t.Errorf("admin update = %d, want 200", w.Code)
	}
}

func TestClasses_InstructorOwnBody(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, "i@camp.io", models.RoleInstructor)
	tok := srv.token(t, "i@camp.io")

	foreign := map[string]interface{}{"instructorEmail": "other@camp.io", "className": "Clay", "availableSeats": 5}
	if w := srv.do(http.MethodPost, "/classes", tok, foreign); w.Code != http.StatusForbidden {
		t.Fatalf("foreign instructorEmail = %d, want 403", w.Code)
	}

	own := map[string]interface{}{"instructorEmail": "i@camp.io", "className": "Clay", "availableSeats": 5, "price": 40}
	w := srv.do(http.MethodPost, "/classes", tok, own)
	if w.Code != http.StatusOK {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	var created models.WriteResult
	json.Unmarshal(w.Body.Bytes(), &created)

	class, err := srv.repo.Class().GetByID(context.Background(), created.InsertedID)
	if err != nil {
		t.Fatalf("class not stored: %v", err)
	}
	if class.ClassName != "Clay" || class.AvailableSeats != 5 || class.Status != models.ClassPending {
		t.Errorf("class = %+v", class)
	}

	w = srv.do(http.MethodGet, "/classes/"+class.ID+"?email=i@camp.io", tok, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get own class = %d", w.Code)
	}
	if w := srv.do(http.MethodGet, "/classes/missing?email=i@camp.io", tok, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing class = %d, want 404", w.Code)
	}

	w = srv.do(http.MethodPatch, "/classes/status/"+class.ID, tok, map[string]string{"status": "approved"})
	if w.Code != http.StatusOK {
		t.Errorf("status update = %d", w.Code)
	}
	w = srv.do(http.MethodGet, "/classes?status=approved", "", nil)
	if !strings.Contains(w.Body.String(), class.ID) {
		t.Errorf("approved listing missing class: %s", w.Body.String())
	}
}

func TestPaymentFlow(t *testing.T) {
	srv := newTestServer(t)
	class := srv.seedClass(t, 5)
	tok := srv.token(t, "s@camp.io")

	if w := srv.do(http.MethodPost, "/order/"+class.ID, tok, map[string]string{"email": "other@camp.io", "name": "S"}); w.Code != http.StatusForbidden {
		t.Fatalf("order for another email = %d, want 403", w.Code)
	}

	w := srv.do(http.MethodPost, "/order/"+class.ID, tok, map[string]string{"email": "s@camp.io", "name": "S"})
	if w.Code != http.StatusOK {
		t.Fatalf("initiate = %d %s", w.Code, w.Body.String())
	}
	var init services.InitiateResponse
	json.Unmarshal(w.Body.Bytes(), &init)
	if init.URL != "https://pay.example/"+init.TranID {
		t.Errorf("url = %q", init.URL)
	}

	for i := 0; i < 2; i++ {
		w = srv.do(http.MethodPost, "/payment/success/"+init.TranID, "", nil)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("success #%d = %d", i, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "http://web.camp.test/payment/success?tranId="+init.TranID {
			t.Errorf("location = %q", loc)
		}
	}

	got, _ := srv.repo.Class().GetByID(context.Background(), class.ID)
	if got.AvailableSeats != 4 || got.EnrolledStudents != 1 {
		t.Errorf("seats/enrolled = %d/%d, want 4/1", got.AvailableSeats, got.EnrolledStudents)
	}

	if w := srv.do(http.MethodPost, "/payment/failed/"+init.TranID, "", nil); w.Code != http.StatusConflict {
		t.Errorf("fail after paid = %d, want 409", w.Code)
	}
	if w := srv.do(http.MethodPost, "/payment/success/unknown", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown tran = %d, want 404", w.Code)
	}

	w = srv.do(http.MethodGet, "/orders?email=s@camp.io", tok, nil)
	var orders []models.Order
	json.Unmarshal(w.Body.Bytes(), &orders)
	if len(orders) != 1 || !orders[0].PaidStatus {
		t.Errorf("orders = %+v", orders)
	}
}

func TestPaymentFailureRedirects(t *testing.T) {
	srv := newTestServer(t)
	class := srv.seedClass(t, 5)
	tok := srv.token(t, "s@camp.io")

	w := srv.do(http.MethodPost, "/order/"+class.ID, tok, map[string]string{"email": "s@camp.io", "name": "S"})
	var init services.InitiateResponse
	json.Unmarshal(w.Body.Bytes(), &init)

	w = srv.do(http.MethodPost, "/payment/failed/"+init.TranID, "", nil)
	if w.Code != http.StatusSeeOther || !strings.HasPrefix(w.Header().Get("Location"), "http://web.camp.test/payment/fail") {
		t.Fatalf("failed = %d %q", w.Code, w.Header().Get("Location"))
	}
	if _, err := srv.repo.Order().GetByTranID(context.Background(), init.TranID); !repositories.IsNotFoundError(err) {
		t.Errorf("order still present: %v", err)
	}
}

func TestPaymentNotification_FailedStatusNeverPays(t *testing.T) {
	for _, status := range []string{"FAILED", "CANCELLED", "EXPIRED", "UNATTEMPTED"} {
		t.Run(status, func(t *testing.T) {
			srv := newTestServer(t)
			class := srv.seedClass(t, 5)
			init := srv.initiate(t, class.ID)

			w := srv.postForm("/payment/ipn", url.Values{"tran_id": {init.TranID}, "status": {status}})
			if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"paid":false`) {
				t.Fatalf("ipn = %d %s", w.Code, w.Body.String())
			}

			if _, err := srv.repo.Order().GetByTranID(context.Background(), init.TranID); !repositories.IsNotFoundError(err) {
				t.Errorf("order still present: %v", err)
			}
			got, _ := srv.repo.Class().GetByID(context.Background(), class.ID)
			if got.AvailableSeats != 5 || got.EnrolledStudents != 0 {
				t.Errorf("seats/enrolled = %d/%d, want 5/0", got.AvailableSeats, got.EnrolledStudents)
			}
		})
	}
}

func TestPaymentNotification_ValidStatusPays(t *testing.T) {
	srv := newTestServer(t)
	class := srv.seedClass(t, 5)
	init := srv.initiate(t, class.ID)

	if ipn := srv.gateway.last.IPNURL; ipn != "http://api.camp.test/payment/ipn" || ipn == srv.gateway.last.SuccessURL {
		t.Errorf("ipn url = %q, success url = %q", ipn, srv.gateway.last.SuccessURL)
	}

	w := srv.postForm("/payment/ipn", url.Values{"tran_id": {init.TranID}, "status": {"VALID"}, "val_id": {"v-1"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"paid":true`) {
		t.Fatalf("ipn = %d %s", w.Code, w.Body.String())
	}

	order, err := srv.repo.Order().GetByTranID(context.Background(), init.TranID)
	if err != nil || !order.PaidStatus {
		t.Fatalf("order = %+v, %v", order, err)
	}
	got, _ := srv.repo.Class().GetByID(context.Background(), class.ID)
	if got.AvailableSeats != 4 || got.EnrolledStudents != 1 {
		t.Errorf("seats/enrolled = %d/%d, want 4/1", got.AvailableSeats, got.EnrolledStudents)
	}

	// a late FAILED notification cannot undo a paid order
	if w := srv.postForm("/payment/ipn", url.Values{"tran_id": {init.TranID}, "status": {"FAILED"}}); w.Code != http.StatusConflict {
		t.Errorf("failed after paid = %d, want 409", w.Code)
	}
	if w := srv.postForm("/payment/ipn", url.Values{"status": {"VALID"}}); w.Code != http.StatusBadRequest {
		t.Errorf("missing tran_id = %d, want 400", w.Code)
	}
}

func TestInitiate_GatewayFailure(t *testing.T) {
	srv := newTestServer(t)
	class := srv.seedClass(t, 5)
	srv.gateway.err = fmt.Errorf("%w: connection refused", payment.ErrGatewayUnavailable)

	w := srv.do(http.MethodPost, "/order/"+class.ID, srv.token(t, "s@camp.io"), map[string]string{"email": "s@camp.io", "name": "S"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if strings.Contains(w.Body.String(), "url") {
		t.Errorf("body leaked a url: %s", w.Body.String())
	}

	orders, _ := srv.repo.Order().List(context.Background())
	if len(orders) != 0 {
		t.Errorf("orders = %d, want 0", len(orders))
	}
}

func TestCarts_AddAndRemove(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "s@camp.io")

	if w := srv.do(http.MethodPost, "/carts", tok, map[string]interface{}{"courseID": "c1", "email": "x@camp.io"}); w.Code != http.StatusForbidden {
		t.Fatalf("add to another cart = %d, want 403", w.Code)
	}

	w := srv.do(http.MethodPost, "/carts", tok, map[string]interface{}{"courseID": "c1", "email": "s@camp.io", "price": 10})
	if w.Code != http.StatusOK {
		t.Fatalf("add = %d %s", w.Code, w.Body.String())
	}
	var created models.WriteResult
	json.Unmarshal(w.Body.Bytes(), &created)

	w = srv.do(http.MethodDelete, "/carts/"+created.InsertedID+"?email=s@camp.io", tok, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"deletedCount":1`) {
		t.Errorf("delete = %d %s", w.Code, w.Body.String())
	}
}

func TestExportOrders_AdminOnly(t *testing.T) {
	srv := newTestServer(t)
	srv.seedUser(t, "admin@camp.io", models.RoleAdmin)

	if w := srv.do(http.MethodGet, "/orders/export", srv.token(t, "s@camp.io"), nil); w.Code != http.StatusForbidden {
		t.Errorf("non-admin export = %d, want 403", w.Code)
	}

	w := srv.do(http.MethodGet, "/orders/export", srv.token(t, "admin@camp.io"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type = %q", ct)
	}
	if w.Body.Len() == 0 {
		t.Error("empty workbook")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	if w := srv.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}

	w := srv.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "camp_http_requests_total") {
		t.Errorf("metrics = %d", w.Code)
	}
}

func TestMiddleware_Headers(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/classes", nil)
	req.Header.Set("Origin", "http://web.camp.test")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://web.camp.test" {
		t.Errorf("allow origin = %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.5, Burst: 1}, nil)
	defer rl.Stop()
	srv := newTestServer(t, withRateLimit(rl))

	if w := srv.do(http.MethodGet, "/instructors", "", nil); w.Code != http.StatusOK {
		t.Fatalf("first = %d", w.Code)
	}
	w := srv.do(http.MethodGet, "/instructors", "", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
	if rl.ClientCount() != 1 {
		t.Errorf("clients = %d", rl.ClientCount())
	}
}

func TestRateLimiter_PaymentCallbacksExempt(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.5, Burst: 1, ExemptPrefixes: []string{"/payment/"}}, nil)
	defer rl.Stop()
	srv := newTestServer(t, withRateLimit(rl))

	for i := 0; i < 5; i++ {
		if w := srv.do(http.MethodPost, "/payment/failed/unknown", "", nil); w.Code != http.StatusSeeOther {
			t.Fatalf("callback #%d = %d, want 303", i, w.Code)
		}
	}
	if w := srv.do(http.MethodGet, "/instructors", "", nil); w.Code != http.StatusOK {
		t.Errorf("first limited request = %d, want 200", w.Code)
	}
	if w := srv.do(http.MethodGet, "/instructors", "", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("second limited request = %d, want 429", w.Code)
	}
}

func TestCreateUser_ExtraFieldsKeptInProfile(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/users", "", map[string]string{"email": "p@camp.io", "name": "P", "gender": "female"})
	if w.Code != http.StatusOK {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}

	u, err := srv.repo.User().GetByEmail(context.Background(), "p@camp.io")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Profile["gender"] != "female" {
		t.Errorf("profile = %+v", u.Profile)
	}
}

func TestAuthorize_SetsPrincipal(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ac := NewAccessControl(tokens, nil, logger)

	router := gin.New()
	router.GET("/me", ac.Authorize(), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, p.Email)
	})

	tok, _, _ := tokens.Issue("me@camp.io", "")
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "me@camp.io" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}
