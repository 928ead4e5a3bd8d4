package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/Huddle/internal/adapters/signal"
	"github.com/dkeye/Huddle/internal/app/directory"
	"github.com/dkeye/Huddle/internal/app/groups"
	"github.com/dkeye/Huddle/internal/app/moderation"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t    *testing.T
	base string
	client *http.Client
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	cfg := &config.Config{Mode: "test", StaticPath: t.TempDir(), Secret: "test-secret"}
	reg := directory.NewRegistry()
	ctrl := signal.NewSignalWSController(reg, directory.NewRelay(reg, nil), signal.NewOfferLimiter(1, 1), signal.Options{})
	h := &Handlers{
		Groups: groups.NewService(groups.NewMemoryStore()),
		Board:  moderation.NewBoard(nil),
	}
	srv := httptest.NewServer(SetupRouter(context.Background(), cfg, h, ctrl))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: srv.URL, client: &http.Client{Jar: jar}}
}

func (a *apiClient) do(method, path, body string, out any) int {
	a.t.Helper()
	var r *bytes.Reader
	if body == "" {
		r = bytes.NewReader(nil)
	} else {
		r = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, a.base+path, r)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGroupsAcceptArrayOrCSV(t *testing.T) {
	api := newTestAPI(t)

	var g domain.Group
	assert.Equal(t, http.StatusCreated, api.do("POST", "/groups", `{"name":"Team","members":"ann, bob,,"}`, &g))
	assert.Equal(t, []string{"ann", "bob"}, g.Members)

	assert.Equal(t, http.StatusCreated, api.do("POST", "/groups", `{"name":"Club","members":["cy"]}`, &g))

	var errResp map[string]string
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/groups", `{"name":"","members":"ann"}`, &errResp))
	assert.Contains(t, errResp["error"], "invalid group")
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/groups", `{"name":"Empty","members":" , "}`, nil))
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/groups", `{"name":"Bad","members":42}`, nil))

	var list []domain.Group
	assert.Equal(t, http.StatusOK, api.do("GET", "/groups", "", &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Team", list[0].Name)
	assert.Equal(t, "Club", list[1].Name)
}

func TestCommentLifecycle(t *testing.T) {
	api := newTestAPI(t)

	var c domain.Comment
	require.Equal(t, http.StatusCreated, api.do("POST", "/api/comments", `{"text":"Hello 123","city":"Miami"}`, &c))
	assert.Equal(t, domain.CityMiami, c.City)

	var errResp map[string]string
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/api/comments", `{"text":"Hi!"}`, &errResp))
	assert.Equal(t, domain.ErrInvalidCharacters.Error(), errResp["error"])
	assert.Equal(t, http.StatusBadRequest, api.do("POST", "/api/comments", `{"text":"ok","city":"Paris"}`, nil))

	assert.Equal(t, http.StatusOK, api.do("POST", "/api/comments/"+string(c.ID)+"/like", "", &c))
	assert.Equal(t, 1, c.Likes)

	assert.Equal(t, http.StatusOK, api.do("POST", "/api/comments/"+string(c.ID)+"/translate", "", &c))
	assert.Equal(t, "Hello 123 (translated)", c.Translation)

	var vote struct {
		Comment domain.Comment `json:"comment"`
		Removed bool           `json:"removed"`
	}
	assert.Equal(t, http.StatusOK, api.do("POST", "/api/comments/"+string(c.ID)+"/dislike", "", &vote))
	assert.False(t, vote.Removed)
	assert.Equal(t, http.StatusOK, api.do("POST", "/api/comments/"+string(c.ID)+"/dislike", "", &vote))
	assert.True(t, vote.Removed)

	var list []domain.Comment
	assert.Equal(t, http.StatusOK, api.do("GET", "/api/comments", "", &list))
	assert.Empty(t, list)
	assert.Equal(t, http.StatusNotFound, api.do("POST", "/api/comments/"+string(c.ID)+"/like", "", nil))
}

func TestCityIsRememberedInSession(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, api.do("PUT", "/api/city", `{"city":"Paris"}`, nil))
	assert.Equal(t, http.StatusOK, api.do("PUT", "/api/city", `{"city":"Chicago"}`, nil))

	var c domain.Comment
	require.Equal(t, http.StatusCreated, api.do("POST", "/api/comments", `{"text":"no city given"}`, &c))
	assert.Equal(t, domain.CityChicago, c.City)

	var cities struct {
		Cities   []domain.City `json:"cities"`
		Selected domain.City   `json:"selected"`
	}
	assert.Equal(t, http.StatusOK, api.do("GET", "/api/city", "", &cities))
	assert.Len(t, cities.Cities, 5)
	assert.Equal(t, domain.CityChicago, cities.Selected)
}
