//go:build e2e

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

// 起動済みのAPIに対して叩く（BASE_URL, E2E_ADMIN_EMAIL, E2E_ADMIN_PASSWORD）
type TestClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	//cart_session cookie を持ち回る
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}

	return &TestClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type LoginResponse struct {
	User struct {
		ID           int64  `json:"id"`
		Email        string `json:"email"`
		Role         string `json:"role"`
		TokenVersion int64  `json:"token_version"`
	} `json:"user"`
	Token struct {
		AccessToken string `json:"access_token"`
	} `json:"token"`
}

func (c *TestClient) do(
	ctx context.Context,
	t *testing.T,
	method string,
	path string,
	bearer string,
	body any,
	headers map[string]string,
) (*http.Response, []byte) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json.Marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("http.NewRequest failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		t.Fatalf("HTTP.Do failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	return resp, data
}

func requireStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("%s %s status=%d want=%d body=%s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, string(body))
	}
}

func mustDecode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json.Unmarshal failed: %v body=%s", err, string(body))
	}
	return v
}

func login(ctx context.Context, t *testing.T, c *TestClient, email, password string) LoginResponse {
	t.Helper()

	resp, body := c.do(ctx, t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	requireStatus(t, resp, http.StatusOK, body)

	out := mustDecode[LoginResponse](t, body)
	if strings.TrimSpace(out.Token.AccessToken) == "" {
		t.Fatalf("access token is empty: body=%s", string(body))
	}
	return out
}

func adminLogin(ctx context.Context, t *testing.T, c *TestClient) string {
	t.Helper()

	email := os.Getenv("E2E_ADMIN_EMAIL")
	password := os.Getenv("E2E_ADMIN_PASSWORD")
	if email == "" || password == "" {
		t.Skip("E2E_ADMIN_EMAIL / E2E_ADMIN_PASSWORD not set")
	}
	return login(ctx, t, c, email, password).Token.AccessToken
}

// 新しい一般ユーザーを作ってログインする
func registerUser(ctx context.Context, t *testing.T, c *TestClient) LoginResponse {
	t.Helper()

	email := "e2e-" + strconv.FormatInt(time.Now().UnixNano(), 10) + "@example.com"
	resp, body := c.do(ctx, t, http.MethodPost, "/auth/register", "", map[string]string{
		"name":     "E2E Buyer",
		"email":    email,
		"password": "password123",
	}, nil)
	requireStatus(t, resp, http.StatusCreated, body)

	return login(ctx, t, c, email, "password123")
}

func unique(prefix string) string {
	return prefix + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)
}

func path(format string, id int64) string {
	return strings.Replace(format, ":id", strconv.FormatInt(id, 10), 1)
}
