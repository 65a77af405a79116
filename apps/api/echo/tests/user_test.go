package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpatrack/gpatrack/apps/api/echo"
	"github.com/gpatrack/gpatrack/core/course"
	"github.com/gpatrack/gpatrack/core/grade"
	"github.com/gpatrack/gpatrack/core/user"
	testutil "github.com/gpatrack/gpatrack/tests"
)

const pwd = "Engine#1843"

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, app.usrRepo, "Taken", "taken@test.io", pwd, false, true)

	tests := []httpTest{
		{name: "empty", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantFields: []string{"name", "email", "password", "password_confirm"}},
		{
			name:     "taken email",
			body:     []byte(`{"name": "Ada", "email": "TAKEN@test.io", "password": "Engine#1843", "password_confirm": "Engine#1843"}`),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"email": "a user with this email already exists"}`),
		},
		{
			name:     "weak password",
			body:     []byte(`{"name": "Ada", "email": "ada@test.io", "password": "password", "password_confirm": "password"}`),
			wantCode: http.StatusBadRequest, wantFields: []string{"password"},
		},
		{
			name:     "bad scale",
			body:     []byte(`{"name": "Ada", "email": "ada@test.io", "password": "Engine#1843", "password_confirm": "Engine#1843", "gpa_scale": "5.0"}`),
			wantCode: http.StatusBadRequest, wantFields: []string{"gpa_scale"},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	t.Run("created", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method:   http.MethodPost,
			path:     "/v1/users/register",
			body:     []byte(`{"name": " Ada ", "email": "Ada@Test.io", "password": "Engine#1843", "password_confirm": "Engine#1843", "gpa_scale": "4.3"}`),
			wantCode: http.StatusCreated,
		})
		var usr user.User
		unmarchall(t, rec.Body.Bytes(), &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "Ada", usr.Name)
		assert.Equal(t, "ada@test.io", usr.Email)
		assert.Equal(t, grade.Scale43, usr.GPAScale)
		assert.True(t, usr.IsActive)
		assert.False(t, usr.IsAdmin)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.io", pwd, false, true)
	testutil.CreateUser(t, app.usrRepo, "Gone", "gone@test.io", pwd, false, false)

	tests := []httpTest{
		{name: "empty", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantFields: []string{"email", "password"}},
		{
			name: "unknown email", body: []byte(`{"email": "lol@test.io", "password": "Engine#1843"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: []byte(`{"email": "ada@test.io", "password": "Engine#1844"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive", body: []byte(`{"email": "gone@test.io", "password": "Engine#1843"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	t.Run("logged in", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPost,
			path:   "/v1/users/login",
			body:   []byte(`{"email": " ADA@test.io", "password": "Engine#1843"}`),
		})
		var resp echoapi.LoginResponse
		unmarchall(t, rec.Body.Bytes(), &resp)
		require.NotEmpty(t, resp.Token)

		// the token works
		app.run(t, httpTest{path: "/v1/users/me", token: resp.Token})

		usr, err := app.usrSvc.GetByEmail(context.Background(), "ada@test.io")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero(), "last login is recorded")
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	ada := testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.io", pwd, false, true)
	gone := testutil.CreateUser(t, app.usrRepo, "Gone", "gone@test.io", pwd, false, false)

	now := time.Now()
	unrefreshable := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   ada.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Email:        ada.Email,
	}
	unrefreshableToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, unrefreshable).SignedString([]byte(conf.SecretKey))
	require.NoError(t, err)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Bad token", token: "lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"})},
		{name: "Inactive user not allowed", token: getToken(t, app, gone), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, app, ada)},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"
		t.Run(tt.name, func(t *testing.T) {
			rec := app.run(t, tt)
			if tt.wantData == nil {
				var resp echoapi.LoginResponse
				unmarchall(t, rec.Body.Bytes(), &resp)
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	ada := testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.io", pwd, false, true)
	testutil.CreateUser(t, app.usrRepo, "Gone", "gone@test.io", pwd, false, false)

	sent := marchallObj(t, echoapi.SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	tests := []struct {
		httpTest
		wantMails int
	}{
		{httpTest: httpTest{name: "bad email", body: []byte(`{"email": "ada"}`), wantCode: http.StatusBadRequest, wantFields: []string{"email"}}},
		{httpTest: httpTest{name: "unknown email", body: []byte(`{"email": "lol@test.io"}`), wantData: sent}},
		{httpTest: httpTest{name: "inactive user", body: []byte(`{"email": "gone@test.io"}`), wantData: sent}},
		{httpTest: httpTest{name: "sent", body: []byte(`{"email": "ADA@test.io"}`), wantData: sent}, wantMails: 1},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"
		t.Run(tt.name, func(t *testing.T) {
			app.mailSvc.Reset()
			app.run(t, tt.httpTest)
			assert.Len(t, app.mailSvc.SentMessages(), tt.wantMails)
		})
	}

	msgs := app.mailSvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ada.Email, msgs[0].To[0].Address)
	data, ok := msgs[0].TemplateData.(map[string]string)
	require.True(t, ok)
	parts := strings.Split(data["ResetURL"], "/")
	require.True(t, len(parts) > 2)
	uid, token := parts[len(parts)-2], parts[len(parts)-1]

	confirm := func(uid, token, newPwd string) []byte {
		return marchallObj(t, user.ResetUserPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd})
	}
	invalidLink := marchallObj(t, httpErr{Error: user.ErrInvalidLink.Error()})
	confirmTests := []httpTest{
		{name: "empty", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantFields: []string{"token", "uid", "password", "password_confirm"}},
		{name: "bad uid", body: confirm("lol", token, "Analytical#42"), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{name: "bad token", body: confirm(uid, "lol-token", "Analytical#42"), wantCode: http.StatusBadRequest, wantData: invalidLink},
		{name: "weak password", body: confirm(uid, token, "analytical"), wantCode: http.StatusBadRequest, wantFields: []string{"password"}},
		{name: "reset", body: confirm(uid, token, "Analytical#42"), wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."})},
		{name: "link is used up", body: confirm(uid, token, "Difference#7"), wantCode: http.StatusBadRequest, wantData: invalidLink},
	}
	for _, tt := range confirmTests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	app.run(t, httpTest{
		method: http.MethodPost,
		path:   "/v1/users/login",
		body:   []byte(`{"email": "ada@test.io", "password": "Analytical#42"}`),
	})
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.io", pwd, true, true)
	bob := testutil.CreateUser(t, app.usrRepo, "Bob", "bob@test.io", pwd, false, true)
	carol := testutil.CreateUser(t, app.usrRepo, "Carol", "carol@test.io", pwd, false, false)

	adminToken := getToken(t, app, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Admin required", path: "/v1/users", token: getToken(t, app, bob), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "order by name", path: "/v1/users?ordering=name", token: adminToken, wantData: marchallList(t, admin, bob, carol)},
		{name: "order by -email", path: "/v1/users?ordering=-email", token: adminToken, wantData: marchallList(t, carol, bob, admin)},
		{name: "unknown ordering is ignored", path: "/v1/users?ordering=password_hash,name", token: adminToken, wantData: marchallList(t, admin, bob, carol)},
		{name: "search", path: "/v1/users?search=BO", token: adminToken, wantData: marchallList(t, bob)},
		{name: "search (unknown)", path: "/v1/users?search=lol", token: adminToken, wantData: marchallList(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
}

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	ada := testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.io", pwd, false, true)
	testutil.CreateUser(t, app.usrRepo, "Bob", "bob@test.io", pwd, false, true)
	gone := testutil.CreateUser(t, app.usrRepo, "Gone", "gone@test.io", pwd, false, false)

	token := getToken(t, app, ada)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user", path: "/v1/users/me", token: getToken(t, app, gone), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "retrieve", path: "/v1/users/me", token: token, wantData: marchallObj(t, ada)},
		{
			name: "cannot promote self", method: http.MethodPut, path: "/v1/users/me", token: token,
			body: []byte(`{"is_admin": true}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "taken email", method: http.MethodPut, path: "/v1/users/me", token: token,
			body: []byte(`{"email": "bob@test.io"}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"email": "a user with this email already exists"}`),
		},
		{
			name: "bad scale", method: http.MethodPut, path: "/v1/users/me", token: token,
			body: []byte(`{"gpa_scale": "5.0"}`), wantCode: http.StatusBadRequest, wantFields: []string{"gpa_scale"},
		},
		{
			name: "password mismatch", method: http.MethodPut, path: "/v1/users/me", token: token,
			body: []byte(`{"password": "Analytical#42", "password_confirm": "Analytical#43"}`), wantCode: http.StatusBadRequest, wantFields: []string{"password_confirm"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}

	t.Run("update", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPut,
			path:   "/v1/users/me",
			token:  token,
			body:   []byte(`{"name": "Ada King", "gpa_scale": "Percentage"}`),
		})
		var usr user.User
		unmarchall(t, rec.Body.Bytes(), &usr)
		assert.Equal(t, ada.ID, usr.ID)
		assert.Equal(t, "Ada King", usr.Name)
		assert.Equal(t, ada.Email, usr.Email)
		assert.Equal(t, grade.ScalePercentage, usr.GPAScale)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		_, err := app.courseSvc.Create(ctx, ada, course.NewCourse{Name: "Calculus", Credits: 4})
		require.NoError(t, err)

		app.run(t, httpTest{method: http.MethodDelete, path: "/v1/users/me", token: token, wantCode: http.StatusNoContent})
		app.run(t, httpTest{
			path: "/v1/users/me", token: token,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		})

		courses, err := app.courseRepo.QueryCourses(ctx, &course.QueryFilter{UserID: ada.ID}, nil)
		require.NoError(t, err)
		assert.Empty(t, courses)
	})
}
