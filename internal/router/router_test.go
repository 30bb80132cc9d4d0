package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadside-assist/internal/config"
	"github.com/iliyamo/roadside-assist/internal/handler"
	"github.com/iliyamo/roadside-assist/internal/middleware"
	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/service"
	"github.com/iliyamo/roadside-assist/internal/storetest"
	"github.com/iliyamo/roadside-assist/internal/utils"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

// app is the full route table over the in-memory store, with Redis absent so
// the limiter and cache pass through.
type app struct {
	e        *echo.Echo
	db       *storetest.DB
	tokens   *utils.TokenIssuer
	customer model.User
	worker   model.User
	admin    model.User
	shop     model.Workshop
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	db := storetest.New()
	a := &app{db: db, tokens: utils.NewTokenIssuer("router-secret", time.Hour)}

	mk := func(phone string, role model.Role) model.User {
		u := model.User{Phone: phone, Role: role, PasswordHash: "x"}
		if err := db.Users().Create(ctx, &u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		return u
	}
	a.customer = mk("+911111111111", model.RoleUser)
	a.worker = mk("+912222222222", model.RoleWorker)
	a.admin = mk("+913333333333", model.RoleAdmin)

	a.shop = model.Workshop{Name: "Downtown", Address: "MG Road", Lat: 12.9716, Lng: 77.5946, IsOpen: true, Services: []string{"Towing"}}
	if err := db.Workshops().Create(ctx, &a.shop); err != nil {
		t.Fatalf("create workshop: %v", err)
	}
	far := model.Workshop{Name: "Mysuru", Address: "Ring Rd", Lat: 12.2958, Lng: 76.6394, IsOpen: true, Services: []string{"Towing"}}
	if err := db.Workshops().Create(ctx, &far); err != nil {
		t.Fatalf("create workshop: %v", err)
	}
	if err := db.Assignments().Create(ctx, &model.WorkerAssignment{UserID: a.worker.ID, WorkshopID: a.shop.ID, IsPrimary: true}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	authSvc := service.NewAuthService(db.Users(), utils.NewPasswordHasher(4), a.tokens, "letmein", nil)
	requestSvc := service.NewRequestService(db.Requests(), db.Workshops(), db.Assignments(), true, nil)
	workshopSvc := service.NewWorkshopService(db.Workshops(), db.Reviews(), nil)
	adminSvc := service.NewAdminService(db.Users(), db.Workshops(), db.Assignments(), db.Stats(), nil, nil)
	reviewSvc := service.NewReviewService(db.Requests(), db.Reviews(), nil)
	notificationSvc := service.NewNotificationService(db.Notifications(), db.Users())

	e := echo.New()
	e.Validator = handler.NewValidator()
	authn := middleware.JWTAuth(a.tokens)
	pass := middleware.NewTokenBucket(config.RateLimitConfig{}, nil, nil)
	requestH := handler.NewRequestHandler(requestSvc, reviewSvc, time.Second, nil)
	workshopH := handler.NewWorkshopHandler(workshopSvc, time.Second, nil)
	notificationH := handler.NewNotificationHandler(notificationSvc, time.Second, nil)

	RegisterRoutes(e, handler.NewHealthHandler(okPinger{}, time.Second, nil))
	RegisterAuth(e, handler.NewAuthHandler(authSvc, time.Second, nil), authn, pass)
	RegisterPublic(e, workshopH, middleware.NewRedisCache(config.CacheConfig{}, nil, nil))
	RegisterRequests(e, requestH, workshopH, notificationH, authn)
	RegisterAdmin(e, handler.NewAdminHandler(adminSvc, time.Second, nil), requestH, notificationH, authn)
	a.e = e
	return a
}

func (a *app) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := a.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok.Token
}

// do sends body (if any) as JSON with an optional bearer token.
func (a *app) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := struct {
		Data any `json:"data"`
	}{Data: dst}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	a := newApp(t)
	if rec := a.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("/healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec := a.do(http.MethodGet, "/api/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/api/health: %d", rec.Code)
	}
	if rec := a.do(http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/metrics: %d", rec.Code)
	}
}

func TestSignupSigninMe(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/api/auth/signup", "", `{"phone":"+919999999999","password":"hunter22","name":"Ravi"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Token == "" {
		t.Fatalf("signup body %s: %v", rec.Body.String(), err)
	}
	if res.User.Role != model.RoleUser {
		t.Fatalf("default role = %q", res.User.Role)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}

	if rec := a.do(http.MethodPost, "/api/auth/signup", "", `{"phone":"+919999999999","password":"hunter22","role":"admin","adminSecret":"nope"}`); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate phone: %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/api/auth/signup", "", `{"phone":"+918888888888","password":"hunter22","role":"admin","adminSecret":"nope"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong admin secret: %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/api/auth/signup", "", `{"phone":"12","password":"x"}`); rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"field":"phone"`) {
		t.Fatalf("validation: %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.do(http.MethodPost, "/api/auth/signup", "", `{"phone":`); rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: %d", rec.Code)
	}

	if rec := a.do(http.MethodPost, "/api/auth/signin", "", `{"phone":"+919999999999","password":"wrong-one"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/api/auth/signin", "", `{"phone":"+919999999999","password":"hunter22","role":"worker"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("role mismatch: %d", rec.Code)
	}
	rec = a.do(http.MethodPost, "/api/auth/signin", "", `{"phone":"+919999999999","password":"hunter22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("signin: %d %s", rec.Code, rec.Body.String())
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &res)

	if rec := a.do(http.MethodGet, "/api/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: %d", rec.Code)
	}
	rec = a.do(http.MethodGet, "/api/me", res.Token, "")
	var me model.User
	decodeData(t, rec, &me)
	if rec.Code != http.StatusOK || me.Phone != "+919999999999" {
		t.Fatalf("me: %d %+v", rec.Code, me)
	}
}

func TestWorkshopSearch(t *testing.T) {
	a := newApp(t)

	if rec := a.do(http.MethodGet, "/api/workshops?radiusKm=5", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("radius without point: %d", rec.Code)
	}
	if rec := a.do(http.MethodGet, "/api/workshops?lat=12.97", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("lat without lng: %d", rec.Code)
	}

	rec := a.do(http.MethodGet, "/api/workshops?lat=12.97&lng=77.59&radiusKm=10", "", "")
	var list []model.Workshop
	decodeData(t, rec, &list)
	if rec.Code != http.StatusOK || len(list) != 1 || list[0].ID != a.shop.ID {
		t.Fatalf("radius search: %d %+v", rec.Code, list)
	}
	if list[0].DistanceKm == nil {
		t.Fatal("distanceKm missing")
	}

	rec = a.do(http.MethodGet, "/api/workshops?lat=12.97&lng=77.59", "", "")
	decodeData(t, rec, &list)
	if len(list) != 2 || list[0].ID != a.shop.ID {
		t.Fatalf("nearest first: %+v", list)
	}

	if rec := a.do(http.MethodGet, "/api/workshops/999", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing workshop: %d", rec.Code)
	}
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	a := newApp(t)
	customer, worker, admin := a.token(t, a.customer), a.token(t, a.worker), a.token(t, a.admin)

	if rec := a.do(http.MethodGet, "/api/requests", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("list without token: %d", rec.Code)
	}

	body := `{"service":"Towing","workshopId":"` + itoa(a.shop.ID) + `","lat":"12.97","lng":77.59,"status":"completed"}`
	rec := a.do(http.MethodPost, "/api/requests", customer, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var sr model.ServiceRequest
	decodeData(t, rec, &sr)
	if sr.Status != model.StatusPending || sr.UserID != a.customer.ID {
		t.Fatalf("created %+v", sr)
	}
	path := "/api/requests/" + itoa(sr.ID)

	long := `{"service":"Towing","vehicleMake":"` + strings.Repeat("m", 51) + `"}`
	if rec := a.do(http.MethodPost, "/api/requests", customer, long); rec.Code != http.StatusBadRequest ||
		!strings.Contains(rec.Body.String(), `"field":"vehicleMake"`) {
		t.Fatalf("oversized vehicle make: %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.do(http.MethodPost, "/api/requests", worker, `{"service":"Towing"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("worker create: %d", rec.Code)
	}
	if rec := a.do(http.MethodPatch, path+"/status", customer, `{"status":"accepted"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("customer status change: %d", rec.Code)
	}
	if rec := a.do(http.MethodPatch, path+"/status", worker, `{"status":"done"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: %d", rec.Code)
	}
	if rec := a.do(http.MethodPatch, "/api/requests/9999/status", worker, `{"status":"accepted"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing request: %d", rec.Code)
	}
	if rec := a.do(http.MethodPatch, path+"/status", worker, `{"status":"completed"}`); rec.Code != http.StatusConflict {
		t.Fatalf("pending to completed: %d", rec.Code)
	}

	rec = a.do(http.MethodPatch, path+"/status", worker, `{"status":"accepted","notes":"on my way"}`)
	decodeData(t, rec, &sr)
	if rec.Code != http.StatusOK || sr.Status != model.StatusAccepted {
		t.Fatalf("accept: %d %+v", rec.Code, sr)
	}
	if sr.AssignedWorkerID == nil || *sr.AssignedWorkerID != a.worker.ID {
		t.Fatalf("worker not claimed: %+v", sr.AssignedWorkerID)
	}

	rec = a.do(http.MethodGet, path+"/history", customer, "")
	var hist []model.StatusHistory
	decodeData(t, rec, &hist)
	if rec.Code != http.StatusOK || len(hist) != 1 {
		t.Fatalf("history: %d %+v", rec.Code, hist)
	}

	if rec := a.do(http.MethodPost, path+"/review", customer, `{"rating":4}`); rec.Code != http.StatusConflict {
		t.Fatalf("review before completion: %d", rec.Code)
	}
	for _, s := range []string{"in_progress", "completed"} {
		if rec := a.do(http.MethodPatch, path+"/status", admin, `{"status":"`+s+`"}`); rec.Code != http.StatusOK {
			t.Fatalf("admin -> %s: %d %s", s, rec.Code, rec.Body.String())
		}
	}
	if rec := a.do(http.MethodPost, path+"/review", customer, `{"rating":9}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("rating 9: %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, path+"/review", customer, `{"rating":4,"comment":"quick"}`); rec.Code != http.StatusCreated {
		t.Fatalf("review: %d %s", rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodGet, "/api/workshops/"+itoa(a.shop.ID), "", "")
	var w model.Workshop
	decodeData(t, rec, &w)
	if w.Reviews != 1 || w.Rating != 4 {
		t.Fatalf("workshop rating %v over %d reviews", w.Rating, w.Reviews)
	}
}

func TestWorkerWorkshopAndAdminGate(t *testing.T) {
	a := newApp(t)
	customer, worker, admin := a.token(t, a.customer), a.token(t, a.worker), a.token(t, a.admin)

	if rec := a.do(http.MethodGet, "/api/workers/me/workshop", customer, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("customer my workshop: %d", rec.Code)
	}
	rec := a.do(http.MethodGet, "/api/workers/me/workshop", worker, "")
	var w *model.Workshop
	decodeData(t, rec, &w)
	if rec.Code != http.StatusOK || w == nil || w.ID != a.shop.ID {
		t.Fatalf("worker workshop: %d %+v", rec.Code, w)
	}
	rec = a.do(http.MethodGet, "/api/workers/me/workshop", admin, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":null`) {
		t.Fatalf("admin workshop: %d %s", rec.Code, rec.Body.String())
	}

	if rec := a.do(http.MethodGet, "/api/admin/stats", worker, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("worker stats: %d", rec.Code)
	}
	rec = a.do(http.MethodGet, "/api/admin/stats", admin, "")
	var st model.AdminStats
	decodeData(t, rec, &st)
	if rec.Code != http.StatusOK || st.Totals.Users != 3 {
		t.Fatalf("stats: %d %+v", rec.Code, st)
	}

	rec = a.do(http.MethodPost, "/api/admin/workshops", admin, `{"name":"Airport","address":"NH 44","lat":13.19,"lng":77.7,"services":[" Towing ",""]}`)
	var created model.Workshop
	decodeData(t, rec, &created)
	if rec.Code != http.StatusCreated || len(created.Services) != 1 {
		t.Fatalf("create workshop: %d %+v", rec.Code, created)
	}
	if rec := a.do(http.MethodPost, "/api/admin/workshops", admin, `{"name":"Nowhere","address":"x1","lat":91,"lng":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad latitude: %d", rec.Code)
	}
	rec = a.do(http.MethodPost, "/api/admin/workshops", admin, `{"name":"Late","address":"NH 44","lat":13.19,"lng":77.7,"openTime":"9am"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"field":"openTime"`) {
		t.Fatalf("bad opening time: %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.do(http.MethodDelete, "/api/admin/users/"+itoa(a.admin.ID), admin, ""); rec.Code != http.StatusConflict {
		t.Fatalf("self delete: %d", rec.Code)
	}
	if rec := a.do(http.MethodDelete, "/api/admin/users/"+itoa(a.customer.ID), admin, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete user: %d", rec.Code)
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	a := newApp(t)
	customer, worker, admin := a.token(t, a.customer), a.token(t, a.worker), a.token(t, a.admin)

	rec := a.do(http.MethodPost, "/api/admin/notifications", admin, `{"userId":"`+itoa(a.customer.ID)+`","title":"Mechanic assigned"}`)
	var n model.Notification
	decodeData(t, rec, &n)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}
	if rec := a.do(http.MethodPost, "/api/admin/notifications", admin, `{"title":"nobody"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("send without user: %d", rec.Code)
	}

	rec = a.do(http.MethodGet, "/api/notifications?unread=true", customer, "")
	var list []model.Notification
	decodeData(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("unread: %+v", list)
	}
	if rec := a.do(http.MethodPost, "/api/notifications/"+itoa(n.ID)+"/read", worker, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("worker marking another user's notification: %d", rec.Code)
	}
	if rec := a.do(http.MethodPost, "/api/notifications/"+itoa(n.ID)+"/read", customer, ""); rec.Code != http.StatusOK {
		t.Fatalf("mark read: %d", rec.Code)
	}
	rec = a.do(http.MethodGet, "/api/notifications?unread=true", customer, "")
	decodeData(t, rec, &list)
	if len(list) != 0 {
		t.Fatalf("still unread: %+v", list)
	}
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
