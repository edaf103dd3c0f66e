package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/lingo-exchange/internal/api"
	"github.com/dom/lingo-exchange/internal/service"
	"github.com/dom/lingo-exchange/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	t.Fatalf("no jwt cookie in response")
	return nil
}

func TestAuthHandler_Signup(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		body           map[string]string
		setup          func()
		expectedStatus int
		expectedMsg    string
		missingFields  []string
	}{
		{
			name:           "successful signup",
			body:           map[string]string{"email": "a@x.com", "password": "secret1", "fullName": "Ann"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing fields",
			body:           map[string]string{"email": "a@x.com"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "All fields are required",
			missingFields:  []string{"password", "fullName"},
		},
		{
			name:           "short password",
			body:           map[string]string{"email": "a@x.com", "password": "123", "fullName": "Ann"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Password must be at least 6 characters",
		},
		{
			name:           "invalid email",
			body:           map[string]string{"email": "ann", "password": "secret1", "fullName": "Ann"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid email format",
		},
		{
			name:           "short password and bad email",
			body:           map[string]string{"email": "bad", "password": "123", "fullName": "Ann"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Password must be at least 6 characters",
		},
		{
			name: "email taken",
			body: map[string]string{"email": "taken@x.com", "password": "secret1", "fullName": "Ann"},
			setup: func() {
				testutil.NewUserBuilder().WithEmail("taken@x.com").Build(t, ts.Repos.User)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Email already exists, please use a different one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts.DB.Truncate(t)
			if tt.setup != nil {
				tt.setup()
			}

			client := testutil.NewAPIClient(t, ts)
			resp := client.Do(http.MethodPost, "/auth/signup", tt.body)
			defer resp.Body.Close()

			if tt.expectedMsg != "" {
				body := testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedMsg)
				assert.Equal(t, tt.missingFields, body.MissingFields)
				assert.Empty(t, resp.Cookies())
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			cookie := sessionCookie(t, resp)
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, "/", cookie.Path)
			assert.Equal(t, int(ts.Config.SessionTTL.Seconds()), cookie.MaxAge)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

			var out struct {
				Success bool                 `json:"success"`
				User    testutil.UserPayload `json:"user"`
			}
			testutil.AssertJSONResponse(t, resp, &out)
			assert.True(t, out.Success)
			assert.Equal(t, "a@x.com", out.User.Email)
			assert.False(t, out.User.IsOnboarded)
			assert.NotNil(t, out.User.Friends)
			assert.Empty(t, out.User.Friends)
			assert.NotEmpty(t, out.User.ProfilePic)
		})
	}
}

func TestAuthHandler_ProductionCookie(t *testing.T) {
	ts := testutil.NewTestServer(t)

	cfg := testutil.TestConfig()
	cfg.Environment = "production"
	services := service.NewServices(ts.Repos, testutil.NewFakeChatProvider(), ts.Hub, cfg)
	router := api.NewRouter(services, ts.Hub, cfg)

	body, err := json.Marshal(map[string]string{"email": "a@x.com", "password": "secret1", "fullName": "Ann"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	resp := rec.Result()
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusCreated)

	cookie := sessionCookie(t, resp)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)

	logoutReq := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	logoutRec := httptest.NewRecorder()
	router.ServeHTTP(logoutRec, logoutReq)

	logout := logoutRec.Result()
	defer logout.Body.Close()
	cleared := sessionCookie(t, logout)
	assert.Equal(t, http.SameSiteNoneMode, cleared.SameSite)
	assert.True(t, cleared.Secure)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestAuthHandler_SignupThenLogin(t *testing.T) {
	ts := testutil.NewTestServer(t)

	signedUp := testutil.NewAPIClient(t, ts).Signup("a@x.com", "secret1", "Ann")

	t.Run("same credentials return the same user", func(t *testing.T) {
		client := testutil.NewAPIClient(t, ts)
		resp := client.Do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "secret1"})
		defer resp.Body.Close()

		testutil.AssertStatusCode(t, resp, http.StatusOK)
		sessionCookie(t, resp)

		var out struct {
			Success bool                 `json:"success"`
			User    testutil.UserPayload `json:"user"`
		}
		testutil.AssertJSONResponse(t, resp, &out)
		assert.Equal(t, signedUp.ID, out.User.ID)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		client := testutil.NewAPIClient(t, ts)

		wrong := client.Do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com", "password": "nope-nope"})
		defer wrong.Body.Close()
		unknown := client.Do(http.MethodPost, "/auth/login", map[string]string{"email": "b@x.com", "password": "secret1"})
		defer unknown.Body.Close()

		wrongBody := testutil.AssertErrorResponse(t, wrong, http.StatusUnauthorized, "Invalid email or password")
		unknownBody := testutil.AssertErrorResponse(t, unknown, http.StatusUnauthorized, "Invalid email or password")
		assert.Equal(t, wrongBody, unknownBody)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := testutil.NewAPIClient(t, ts).Do(http.MethodPost, "/auth/login", map[string]string{"email": "a@x.com"})
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "All fields are required")
	})
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := testutil.NewAPIClient(t, ts)

	unauth := client.Do(http.MethodGet, "/auth/me", nil)
	unauth.Body.Close()
	testutil.AssertStatusCode(t, unauth, http.StatusUnauthorized)

	user := client.Signup("a@x.com", "secret1", "Ann")

	resp := client.Do(http.MethodGet, "/auth/me", nil)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var raw map[string]map[string]interface{}
	testutil.AssertJSONResponse(t, resp, &raw)
	assert.Equal(t, user.ID, raw["user"]["_id"])
	assert.NotContains(t, raw["user"], "password")
	assert.NotContains(t, raw["user"], "passwordHash")

	logout := client.Do(http.MethodPost, "/auth/logout", nil)
	defer logout.Body.Close()
	testutil.AssertStatusCode(t, logout, http.StatusOK)
	cleared := sessionCookie(t, logout)
	assert.Less(t, cleared.MaxAge, 0)

	after := client.Do(http.MethodGet, "/auth/me", nil)
	defer after.Body.Close()
	testutil.AssertStatusCode(t, after, http.StatusUnauthorized)
}

func TestAuthHandler_BearerToken(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewAPIClient(t, ts).Signup("a@x.com", "secret1", "Ann")

	result, err := ts.Services.Auth.Login(context.Background(), service.LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.APIURL("/auth/me"), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+result.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	req.Header.Set("Authorization", "Bearer not-a-token")
	bad, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer bad.Body.Close()
	testutil.AssertErrorResponse(t, bad, http.StatusUnauthorized, "Unauthorized - Invalid token")
}

func TestAuthHandler_Onboard(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := testutil.NewAPIClient(t, ts)
	user := client.Signup("a@x.com", "secret1", "Ann")

	t.Run("missing fields leave the user unchanged", func(t *testing.T) {
		resp := client.Do(http.MethodPost, "/auth/onboard", map[string]string{
			"fullName": "Ann Lee",
			"bio":      "hi",
		})
		defer resp.Body.Close()

		body := testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "All fields are required")
		assert.Equal(t, []string{"nativeLanguage", "learningLanguage", "location"}, body.MissingFields)

		me := client.Do(http.MethodGet, "/auth/me", nil)
		defer me.Body.Close()
		var out struct {
			User testutil.UserPayload `json:"user"`
		}
		testutil.AssertJSONResponse(t, me, &out)
		assert.False(t, out.User.IsOnboarded)
		assert.Equal(t, "Ann", out.User.FullName)
	})

	t.Run("complete profile", func(t *testing.T) {
		resp := client.Do(http.MethodPost, "/auth/onboard", map[string]string{
			"fullName":         "Ann Lee",
			"bio":              "hi",
			"nativeLanguage":   "english",
			"learningLanguage": "french",
			"location":         "Lyon",
		})
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var out struct {
			Success bool                 `json:"success"`
			User    testutil.UserPayload `json:"user"`
		}
		testutil.AssertJSONResponse(t, resp, &out)
		assert.True(t, out.Success)
		assert.True(t, out.User.IsOnboarded)
		assert.Equal(t, "french", out.User.LearningLanguage)
		assert.Equal(t, user.ProfilePic, out.User.ProfilePic)

		upserts := ts.Chat.Upserts()
		require.NotEmpty(t, upserts)
		assert.Equal(t, "Ann Lee", upserts[len(upserts)-1].Name)
	})

	t.Run("requires a session", func(t *testing.T) {
		resp := testutil.NewAPIClient(t, ts).Do(http.MethodPost, "/auth/onboard", map[string]string{})
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	})
}
