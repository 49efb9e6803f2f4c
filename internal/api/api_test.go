package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/notify"
	"github.com/lalith-99/dormlink/internal/repository/memory"
	"github.com/lalith-99/dormlink/internal/workflow"
)

const testSecret = "test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Reason  string          `json:"reason"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	hub    *notify.Hub
	done   chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	hub := notify.NewHub(store.Repos().Notifications, zap.NewNop())
	clock := func() time.Time { return time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC) }
	engine := workflow.New(store, hub, zap.NewNop(), workflow.WithClock(clock))

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	return &testServer{
		t:   t,
		hub: hub,
		router: NewRouter(Deps{
			Engine:    engine,
			Hub:       hub,
			JWTSecret: testSecret,
			TokenTTL:  time.Hour,
			Done:      done,
			Logger:    zap.NewNop(),
		}),
		done: done,
	}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

// login registers a user and returns a bearer token and the user id.
func (s *testServer) login(name string, role models.Role) (string, int64) {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"username": name,
		"password": "longenough1",
		"email":    name + "@uni.edu",
		"phone":    "1234567890",
		"role":     role,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Reason)

	code, env = s.do(http.MethodPost, "/v1/auth/login", "", gin.H{
		"username": name,
		"password": "longenough1",
	})
	require.Equal(s.t, http.StatusOK, code, env.Reason)

	var resp loginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token, resp.UserID
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func (s *testServer) property(token string, bedrooms int) models.Property {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/v1/properties", token, gin.H{
		"address": "12 Elm Street", "state": "NY", "city": "Buffalo", "zipcode": "14201",
		"bedrooms": bedrooms, "kitchens": 1, "bathrooms": 1,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Reason)
	return decode[models.Property](s.t, env)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthReportsUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.New()
	hub := notify.NewHub(store.Repos().Notifications, zap.NewNop())
	r := NewRouter(Deps{
		Engine:    workflow.New(store, hub, zap.NewNop()),
		Hub:       hub,
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
		Health:    func(context.Context) error { return errors.New("db down") },
		Logger:    zap.NewNop(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = s.do(http.MethodGet, "/v1/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.login("alice", models.RoleStudent)

	code, env := s.do(http.MethodGet, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[models.User](t, env)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, models.RoleStudent, me.Role)
	assert.NotContains(t, string(env.Data), "password")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.login("alice", models.RoleStudent)

	code, env := s.do(http.MethodPost, "/v1/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid username or password", env.Reason)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.login("owner", models.RoleHomeowner)
	studentToken, studentID := s.login("student", models.RoleStudent)
	prop := s.property(ownerToken, 2)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{
			name: "duplicate username", method: http.MethodPost, path: "/v1/auth/register",
			body: gin.H{"username": "owner", "password": "longenough1", "email": "x@uni.edu", "phone": "1234567890", "role": "homeowner"},
			want: http.StatusConflict,
		},
		{
			name: "validation", method: http.MethodPost, path: "/v1/auth/register",
			body: gin.H{"username": "bob", "password": "short", "email": "bob@uni.edu", "phone": "1234567890", "role": "student"},
			want: http.StatusBadRequest,
		},
		{
			name: "malformed body", method: http.MethodPost, path: "/v1/properties", token: ownerToken,
			body: "not an object", want: http.StatusBadRequest,
		},
		{
			name: "wrong role", method: http.MethodPost, path: "/v1/properties", token: studentToken,
			body: gin.H{"address": "1 A St", "state": "NY", "city": "Buffalo", "zipcode": "14201", "bedrooms": 1},
			want: http.StatusForbidden,
		},
		{
			name: "bad path id", method: http.MethodPost, path: "/v1/visits/abc/decision", token: ownerToken,
			body: gin.H{"decision": "accept"}, want: http.StatusBadRequest,
		},
		{
			name: "unknown decision", method: http.MethodPost, path: "/v1/visits/1/decision", token: ownerToken,
			body: gin.H{"decision": "maybe"}, want: http.StatusBadRequest,
		},
		{
			name: "missing visit", method: http.MethodPost, path: "/v1/visits/999/decision", token: ownerToken,
			body: gin.H{"decision": "accept"}, want: http.StatusNotFound,
		},
		{
			name: "lease without accepted visit", method: http.MethodPost, path: "/v1/leases", token: ownerToken,
			body: gin.H{"property_id": prop.ID, "student_id": studentID, "start_date": "2025-09-01", "end_date": "2026-05-31", "rent_amount": 650},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "search needs state", method: http.MethodGet, path: "/v1/properties", token: studentToken,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, code, env.Reason)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Reason)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(apperr.KindIllegalTransition))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(apperr.KindPrecondition))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperr.KindOf(errors.New("boom"))))
}

func TestLeaseHidesPropertyFromSearch(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.login("owner", models.RoleHomeowner)
	tenantToken, tenantID := s.login("tenant", models.RoleStudent)
	otherToken, _ := s.login("other", models.RoleStudent)
	prop := s.property(ownerToken, 1)
	require.True(t, prop.Visible)
	require.Equal(t, 1, prop.RoomsAvailable)

	code, env := s.do(http.MethodGet, "/v1/properties?state=NY&city=buff", otherToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Len(t, decode[[]models.Property](t, env), 1)

	code, env = s.do(http.MethodPost, "/v1/visits", tenantToken, gin.H{
		"property_id": prop.ID, "visit_type": "in_person", "date": "2025-09-10", "time": "14:00",
	})
	require.Equal(t, http.StatusCreated, code, env.Reason)
	visit := decode[models.Visit](t, env)

	code, env = s.do(http.MethodGet, "/v1/visits/requests", ownerToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Contains(t, string(env.Data), "tenant")

	code, env = s.do(http.MethodPost, "/v1/visits/"+itoa(visit.ID)+"/decision", ownerToken, gin.H{"decision": "accept"})
	require.Equal(t, http.StatusOK, code, env.Reason)

	code, env = s.do(http.MethodPost, "/v1/visits/"+itoa(visit.ID)+"/decision", ownerToken, gin.H{"decision": "reject"})
	assert.Equal(t, http.StatusConflict, code, env.Reason)

	code, env = s.do(http.MethodPost, "/v1/leases", ownerToken, gin.H{
		"property_id": prop.ID, "student_id": tenantID,
		"start_date": "2025-09-01", "end_date": "2026-05-31", "rent_amount": 650,
	})
	require.Equal(t, http.StatusCreated, code, env.Reason)

	code, env = s.do(http.MethodGet, "/v1/properties?state=NY", otherToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Empty(t, decode[[]models.Property](t, env))

	code, env = s.do(http.MethodGet, "/v1/leases/mine", tenantToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Contains(t, string(env.Data), "12 Elm Street")

	code, env = s.do(http.MethodGet, "/v1/notifications", tenantToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	ns := decode[[]models.Notification](t, env)
	require.NotEmpty(t, ns)
	for _, n := range ns {
		assert.Equal(t, tenantID, n.UserID)
		assert.Equal(t, models.NotificationUnread, n.Status)
	}

	code, env = s.do(http.MethodPost, "/v1/notifications/"+itoa(ns[0].ID)+"/read", tenantToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)

	code, env = s.do(http.MethodPost, "/v1/notifications/"+itoa(ns[0].ID)+"/read", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, code, env.Reason)
}

func TestBookmarkToggle(t *testing.T) {
	s := newTestServer(t)
	ownerToken, _ := s.login("owner", models.RoleHomeowner)
	studentToken, _ := s.login("student", models.RoleStudent)
	prop := s.property(ownerToken, 3)

	path := "/v1/properties/" + itoa(prop.ID) + "/bookmark"
	code, env := s.do(http.MethodPost, path, studentToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Contains(t, string(env.Data), `"bookmarked":true`)

	code, env = s.do(http.MethodGet, "/v1/bookmarks", studentToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Len(t, decode[[]models.Property](t, env), 1)

	code, env = s.do(http.MethodPost, path, studentToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Contains(t, string(env.Data), `"bookmarked":false`)
}

func TestCarpoolJoinFlow(t *testing.T) {
	s := newTestServer(t)
	driverToken, _ := s.login("driver", models.RoleStudent)
	riderToken, _ := s.login("rider", models.RoleStudent)

	code, env := s.do(http.MethodPost, "/v1/carpools", driverToken, gin.H{
		"start_point": "North Campus", "destination": "Airport", "seats": 1, "price": 10,
		"date": "2025-09-12", "time": "08:30",
		"stops": []gin.H{{"name": "Downtown", "eta": "08:50"}},
	})
	require.Equal(t, http.StatusCreated, code, env.Reason)
	cp := decode[models.Carpool](t, env)

	code, env = s.do(http.MethodGet, "/v1/carpools?start=downtown&destination=air", riderToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Len(t, decode[[]models.CarpoolView](t, env), 1)

	code, env = s.do(http.MethodPost, "/v1/carpools/"+itoa(cp.ID)+"/join", riderToken, nil)
	require.Equal(t, http.StatusCreated, code, env.Reason)
	req := decode[models.CarpoolRequest](t, env)

	code, env = s.do(http.MethodPost, "/v1/carpools/"+itoa(cp.ID)+"/join", riderToken, nil)
	assert.Equal(t, http.StatusConflict, code, env.Reason)

	code, env = s.do(http.MethodPost, "/v1/carpool-requests/"+itoa(req.ID)+"/decision", riderToken, gin.H{"decision": "accept"})
	assert.Equal(t, http.StatusForbidden, code, env.Reason)

	code, env = s.do(http.MethodPost, "/v1/carpool-requests/"+itoa(req.ID)+"/decision", driverToken, gin.H{"decision": "accept"})
	require.Equal(t, http.StatusOK, code, env.Reason)

	code, env = s.do(http.MethodGet, "/v1/carpools/upcoming", riderToken, nil)
	require.Equal(t, http.StatusOK, code, env.Reason)
	assert.Len(t, decode[[]models.CarpoolView](t, env), 1)
}

func TestNotificationStream(t *testing.T) {
	s := newTestServer(t)
	ownerToken, ownerID := s.login("owner", models.RoleHomeowner)
	studentToken, _ := s.login("student", models.RoleStudent)
	prop := s.property(ownerToken, 2)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/notifications/ws?token=" + ownerToken
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello streamMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)
	assert.Equal(t, 1, s.hub.Subscribers(ownerID))

	code, env := s.do(http.MethodPost, "/v1/visits", studentToken, gin.H{
		"property_id": prop.ID, "visit_type": "virtual", "date": "2025-09-10", "time": "10:00",
	})
	require.Equal(t, http.StatusCreated, code, env.Reason)

	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "notification", msg.Type)
	require.NotNil(t, msg.Notification)
	assert.Equal(t, ownerID, msg.Notification.UserID)
	assert.Contains(t, msg.Notification.Message, "New visit request")
}

func TestNotificationStreamRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/notifications/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"http://localhost:3000"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowOrigins)
	assert.True(t, cfg.AllowCredentials)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
