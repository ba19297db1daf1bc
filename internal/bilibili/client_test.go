package bilibili

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bilihist/bili-history-sync-service/pkg/code"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestClient_MissingCredential(t *testing.T) {
	c := NewClient("", "")

	_, err := c.FetchHistoryPage(context.Background(), Cursor{}, 30)
	require.True(t, errors.Is(err, code.ErrAuthRequired))
}

func TestClient_FetchHistoryPage(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/x/web-interface/history/cursor", r.URL.Path)
		require.Contains(t, r.Header.Get("Cookie"), "SESSDATA=token")
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"code":0,"message":"0","data":{
			"cursor":{"max":708,"view_at":1700000100},
			"list":[
				{"history":{"oid":708,"business":"archive","bvid":"BV1xx"},
				 "title":"first","cover":"http://i0/c.jpg","view_at":1700000200,
				 "author_name":"up","author_mid":9,"progress":120,"duration":600},
				{"history":{"oid":11,"business":"article"},
				 "title":"column","covers":["http://i0/a.jpg"],"view_at":1700000100}
			]}}`))
	}))
	defer srv.Close()

	c := NewClient("token", "csrf", WithBaseURL(srv.URL))
	page, err := c.FetchHistoryPage(context.Background(), Cursor{Max: 5, ViewAt: 99}, 30)
	require.NoError(t, err)

	require.Equal(t, []string{"5"}, gotQuery["max"])
	require.Equal(t, []string{"99"}, gotQuery["view_at"])
	require.Equal(t, []string{"30"}, gotQuery["ps"])

	require.Len(t, page.List, 2)
	require.Equal(t, int64(708), page.List[0].ID())
	require.Equal(t, "archive", page.List[0].Business())
	require.Equal(t, "http://i0/c.jpg", page.List[0].CoverURL())
	// 专栏封面取 covers 数组
	require.Equal(t, "http://i0/a.jpg", page.List[1].CoverURL())
	require.Equal(t, Cursor{Max: 708, ViewAt: 1700000100}, page.Cursor)
}

func TestClient_InitialCursorOmitsParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.False(t, q.Has("max"))
		require.False(t, q.Has("view_at"))
		w.Write([]byte(`{"code":0,"data":{"cursor":{"max":0,"view_at":0},"list":[]}}`))
	}))
	defer srv.Close()

	c := NewClient("token", "", WithBaseURL(srv.URL))
	_, err := c.FetchHistoryPage(context.Background(), Cursor{}, 30)
	require.NoError(t, err)
}

func TestClient_RemoteRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":-400,"message":"请求错误"}`))
	}))
	defer srv.Close()

	c := NewClient("token", "", WithBaseURL(srv.URL))
	_, err := c.FetchHistoryPage(context.Background(), Cursor{}, 30)
	require.True(t, errors.Is(err, code.ErrRemoteRejected))
}

func TestClient_SessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":-101,"message":"账号未登录"}`))
	}))
	defer srv.Close()

	c := NewClient("stale", "", WithBaseURL(srv.URL))
	_, err := c.Nav(context.Background())
	require.True(t, errors.Is(err, code.ErrAuthRequired))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient("token", "", WithBaseURL(srv.URL))
	_, err := c.FetchFavoriteFolders(context.Background(), 1)
	require.True(t, errors.Is(err, code.ErrNetworkFailure))
}

func TestClient_DeleteHistoryItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "archive_708", r.PostForm.Get("kid"))
		require.Equal(t, "csrf-token", r.PostForm.Get("csrf"))
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	c := NewClient("token", "csrf-token", WithBaseURL(srv.URL))
	require.NoError(t, c.DeleteHistoryItem(context.Background(), "archive", 708))

	noCsrf := NewClient("token", "", WithBaseURL(srv.URL))
	err := noCsrf.DeleteHistoryItem(context.Background(), "archive", 708)
	require.True(t, errors.Is(err, code.ErrAuthRequired))
}

func TestClient_FetchFavoriteResourcePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "42", q.Get("media_id"))
		require.Equal(t, "2", q.Get("pn"))
		w.Write([]byte(`{"code":0,"data":{"medias":[
			{"id":900,"title":"已失效视频","cover":"","upper":{"mid":0,"name":""},"fav_time":1690000000,"bvid":""}
		],"has_more":false}}`))
	}))
	defer srv.Close()

	c := NewClient("token", "", WithBaseURL(srv.URL))
	medias, hasMore, err := c.FetchFavoriteResourcePage(context.Background(), 42, 2, 20)
	require.NoError(t, err)
	require.False(t, hasMore)
	require.Len(t, medias, 1)
	require.Equal(t, int64(900), medias[0].ID)
}
