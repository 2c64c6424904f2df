package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatroom/auth"
	"chatroom/contract"
	"chatroom/domain"
	apperrors "chatroom/errors"
	"chatroom/projection"
	"chatroom/runtime"
	"chatroom/search"
	"chatroom/services"
)

type fakeChat struct {
	rooms   []domain.Room
	members map[string][]string
	hits    []search.Hit
	created []string
}

func (f *fakeChat) Connect(string, contract.EventSink) error { return nil }
func (f *fakeChat) Disconnect(string)                        {}
func (f *fakeChat) Dispatch(domain.Command)                  {}
func (f *fakeChat) RoomExists(string) (bool, error)          { return true, nil }
func (f *fakeChat) ListRooms() ([]domain.Room, error)        { return f.rooms, nil }
func (f *fakeChat) MembersOf(room string) []string           { return f.members[room] }
func (f *fakeChat) Stats() runtime.Stats                     { return runtime.Stats{Online: 2} }

func (f *fakeChat) CreateRoom(name, createdBy string) (domain.Room, error) {
	f.created = append(f.created, name)
	return domain.NewRoom(name, createdBy), nil
}

func (f *fakeChat) Search(context.Context, string, string, int) ([]search.Hit, error) {
	return f.hits, nil
}

type fakeAuth struct {
	registerErr error
	loginErr    error
}

func (f *fakeAuth) Register(username, _ string) (services.Token, error) {
	if f.registerErr != nil {
		return "", f.registerErr
	}
	return services.Token("token-for-" + username), nil
}

func (f *fakeAuth) Login(username, _ string) (services.Token, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return services.Token("token-for-" + username), nil
}

func newTestServer(t *testing.T, chat *fakeChat, accounts *fakeAuth) (*httptest.Server, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("web-test-secret", time.Hour)
	api := NewAPI(slog.New(slog.DiscardHandler), chat, accounts, tokens, projection.NewTimeline(10))

	mux := http.NewServeMux()
	api.Routes(mux, http.NotFoundHandler())

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, tokens
}

func postJSON(t *testing.T, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		req.Header[key] = values
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAPI_Register(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t, &fakeChat{}, &fakeAuth{})

	resp := postJSON(t, server.URL+"/register", `{"username":"alice","password":"longenough"}`, nil)

	req.Equal(http.StatusCreated, resp.StatusCode)
	var payload map[string]string
	decode(t, resp, &payload)
	req.Equal("token-for-alice", payload["token"])
}

func TestAPI_Register_Conflict(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t, &fakeChat{}, &fakeAuth{registerErr: apperrors.ErrUserAlreadyExists})

	resp := postJSON(t, server.URL+"/register", `{"username":"alice","password":"longenough"}`, nil)

	req.Equal(http.StatusConflict, resp.StatusCode)
}

func TestAPI_Register_Validation_Failure(t *testing.T) {
	req := require.New(t)
	registerErr := fmt.Errorf("%w: password too short", apperrors.ErrValidation)
	server, _ := newTestServer(t, &fakeChat{}, &fakeAuth{registerErr: registerErr})

	resp := postJSON(t, server.URL+"/register", `{"username":"alice","password":"short"}`, nil)

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Login(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t, &fakeChat{}, &fakeAuth{})

	resp := postJSON(t, server.URL+"/login", `{"username":"alice","password":"longenough"}`, nil)

	req.Equal(http.StatusOK, resp.StatusCode)
	var payload map[string]string
	decode(t, resp, &payload)
	req.Equal("token-for-alice", payload["token"])
}

func TestAPI_Login_Invalid_Credentials(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t, &fakeChat{}, &fakeAuth{loginErr: apperrors.ErrInvalidCredentials})

	resp := postJSON(t, server.URL+"/login", `{"username":"alice","password":"wrong"}`, nil)

	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_ListRooms(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{
		rooms:   []domain.Room{domain.NewRoom("general", "system")},
		members: map[string][]string{"general": {"alice", "bob"}},
	}
	server, _ := newTestServer(t, chat, &fakeAuth{})

	resp, err := http.Get(server.URL + "/rooms")
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	var payload []map[string]any
	decode(t, resp, &payload)
	req.Len(payload, 1)
	req.Equal("general", payload[0]["name"])
	req.Equal([]any{"alice", "bob"}, payload[0]["active_users"])
}

func TestAPI_CreateRoom_Requires_Bearer(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{}
	server, _ := newTestServer(t, chat, &fakeAuth{})

	resp := postJSON(t, server.URL+"/rooms", `{"name":"random"}`, nil)

	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	req.Empty(chat.created)
}

func TestAPI_CreateRoom(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{}
	server, tokens := newTestServer(t, chat, &fakeAuth{})

	token, err := tokens.Generate("user-1", "alice")
	req.NoError(err)
	header := http.Header{"Authorization": []string{"Bearer " + token}}

	resp := postJSON(t, server.URL+"/rooms", `{"name":"random"}`, header)

	req.Equal(http.StatusCreated, resp.StatusCode)
	req.Equal([]string{"random"}, chat.created)

	var payload map[string]any
	decode(t, resp, &payload)
	req.Equal("random", payload["name"])
	req.Equal("alice", payload["created_by"])
}

func TestAPI_Search(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{hits: []search.Hit{{ID: "m1", Room: "general", Username: "alice", Content: "hello"}}}
	server, _ := newTestServer(t, chat, &fakeAuth{})

	// Missing query is refused
	resp, err := http.Get(server.URL + "/search")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	// A valid query returns the hits
	resp, err = http.Get(server.URL + "/search?q=hello")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var payload struct {
		Hits []search.Hit `json:"hits"`
	}
	decode(t, resp, &payload)
	req.Len(payload.Hits, 1)
	req.Equal("hello", payload.Hits[0].Content)
}

func TestAPI_Search_Invalid_Limit(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t, &fakeChat{}, &fakeAuth{})

	resp, err := http.Get(server.URL + "/search?q=hello&limit=zero")
	req.NoError(err)
	resp.Body.Close()

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Health_And_Stats(t *testing.T) {
	req := require.New(t)
	server, _ := newTestServer(t, &fakeChat{}, &fakeAuth{})

	resp, err := http.Get(server.URL + "/health")
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/stats")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	var payload map[string]any
	decode(t, resp, &payload)
	req.Contains(payload, "engine")
	req.Contains(payload, "recent_messages")
}
