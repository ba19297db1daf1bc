// Package bilibili 封装 B 站 Web 开放接口。
// 所有请求携带 SESSDATA Cookie，业务码非零映射为 ErrRemoteRejected，
// 登录态失效（-101）映射为 ErrAuthRequired，传输层失败映射为 ErrNetworkFailure。
package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bilihist/bili-history-sync-service/pkg/code"
)

const (
	// DefaultBaseURL 线上接口地址，测试时可替换
	DefaultBaseURL = "https://api.bilibili.com"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	codeNotLoggedIn = -101
)

// Client B 站接口客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessdata   string
	biliJct    string
}

// Option 配置客户端
type Option func(*Client)

// WithBaseURL 替换接口地址，测试用
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient 替换底层 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient 创建客户端。
// sessdata 为空不报错，调用方在发起请求前会得到 ErrAuthRequired。
func NewClient(sessdata, biliJct string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		sessdata:   sessdata,
		biliJct:    biliJct,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasCredential 是否持有会话凭证
func (c *Client) HasCredential() bool {
	return c.sessdata != ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values, out interface{}) error {
	if !c.HasCredential() {
		return code.ErrAuthRequired
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return code.ErrNetworkFailure.WithDetails(err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", "SESSDATA="+c.sessdata)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return code.ErrNetworkFailure.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return code.ErrNetworkFailure.WithDetails(fmt.Sprintf("http status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return code.ErrNetworkFailure.WithDetails(err.Error())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return code.ErrRemoteRejected.WithDetails("unparseable response body")
	}
	return nil
}

func checkCode(r response) error {
	if r.Code == codeNotLoggedIn {
		return code.ErrAuthRequired
	}
	if r.Code != 0 {
		return code.ErrRemoteRejected.WithDetails(fmt.Sprintf("code %d: %s", r.Code, r.Message))
	}
	return nil
}

// Nav 获取当前登录用户的 mid
func (c *Client) Nav(ctx context.Context) (int64, error) {
	var out navResponse
	if err := c.do(ctx, http.MethodGet, "/x/web-interface/nav", nil, nil, &out); err != nil {
		return 0, err
	}
	if err := checkCode(out.response); err != nil {
		return 0, err
	}
	if !out.Data.IsLogin {
		return 0, code.ErrAuthRequired
	}
	return out.Data.Mid, nil
}

// FetchHistoryPage 按游标获取一页观看历史。
// 初始游标不携带 max/view_at 参数，返回的游标原样用于下一页。
func (c *Client) FetchHistoryPage(ctx context.Context, cursor Cursor, pageSize int) (*HistoryPage, error) {
	q := url.Values{}
	q.Set("type", "all")
	q.Set("ps", strconv.Itoa(pageSize))
	if !cursor.IsZero() {
		q.Set("max", strconv.FormatInt(cursor.Max, 10))
		q.Set("view_at", strconv.FormatInt(cursor.ViewAt, 10))
	}

	var out historyPageResponse
	if err := c.do(ctx, http.MethodGet, "/x/web-interface/history/cursor", q, nil, &out); err != nil {
		return nil, err
	}
	if err := checkCode(out.response); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// FetchFavoriteFolders 获取用户创建的全部收藏夹
func (c *Client) FetchFavoriteFolders(ctx context.Context, mid int64) ([]FolderInfo, error) {
	q := url.Values{}
	q.Set("up_mid", strconv.FormatInt(mid, 10))

	var out folderListResponse
	if err := c.do(ctx, http.MethodGet, "/x/v3/fav/folder/created/list-all", q, nil, &out); err != nil {
		return nil, err
	}
	if err := checkCode(out.response); err != nil {
		return nil, err
	}
	return out.Data.List, nil
}

// FetchFavoriteResourcePage 获取收藏夹内一页资源，pn 从 1 开始
func (c *Client) FetchFavoriteResourcePage(ctx context.Context, mediaID int64, pn, pageSize int) ([]MediaInfo, bool, error) {
	q := url.Values{}
	q.Set("media_id", strconv.FormatInt(mediaID, 10))
	q.Set("pn", strconv.Itoa(pn))
	q.Set("ps", strconv.Itoa(pageSize))
	q.Set("platform", "web")

	var out mediaListResponse
	if err := c.do(ctx, http.MethodGet, "/x/v3/fav/resource/list", q, nil, &out); err != nil {
		return nil, false, err
	}
	if err := checkCode(out.response); err != nil {
		return nil, false, err
	}
	return out.Data.Medias, out.Data.HasMore, nil
}

// DeleteHistoryItem 删除远端单条历史，kid 形如 business_oid
func (c *Client) DeleteHistoryItem(ctx context.Context, business string, oid int64) error {
	if c.biliJct == "" {
		return code.ErrAuthRequired.WithDetails("bili_jct csrf token missing")
	}
	form := url.Values{}
	form.Set("kid", fmt.Sprintf("%s_%d", business, oid))
	form.Set("csrf", c.biliJct)

	var out response
	if err := c.do(ctx, http.MethodPost, "/x/v2/history/delete", nil, form, &out); err != nil {
		return err
	}
	return checkCode(out)
}
