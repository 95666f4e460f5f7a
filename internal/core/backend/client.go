package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"perfect-recipe/internal/core/auth"
	"perfect-recipe/internal/infrastructure/config"
	"perfect-recipe/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RefreshPath 刷新存取憑證的端點
const RefreshPath = "/api/token/refresh/"

// Call 一次後端操作的描述
type Call struct {
	Name      string // 記錄用名稱，例如 "recipe.create"
	Method    string
	Path      string
	Forbidden string // 403 且後端沒有說明時的訊息
}

// SendFunc 以已帶好憑證的請求送出一次
// 每次嘗試都會重新呼叫，請在函式內重建請求內容（含 multipart 讀取器）
type SendFunc func(req *resty.Request) (*resty.Response, error)

// ExpiredFunc 工作階段失效時的通知
type ExpiredFunc func(ctx context.Context)

// state 送出狀態
type state int

const (
	stateIdle state = iota
	stateSending
	stateRefreshNeeded
	stateSuccess
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSending:
		return "sending"
	case stateRefreshNeeded:
		return "refresh_needed"
	case stateSuccess:
		return "success"
	default:
		return "failed"
	}
}

// Client 帶憑證的後端客戶端
type Client struct {
	http   *resty.Client
	store  auth.Store
	scheme string
	skew   time.Duration
	now    func() time.Time

	// 同一時間只允許一個刷新交換
	refreshMu sync.Mutex

	// credMu 保護憑證寫入與 gen；登入、登出、失效清除都會遞增 gen，
	// 刷新結果只在 gen 與刷新憑證都未變時才寫回
	credMu sync.Mutex
	gen    uint64

	listenersMu sync.RWMutex
	listeners   []ExpiredFunc
}

// NewClient 創建後端客戶端
func NewClient(cfg config.BackendConfig, store auth.Store) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	scheme := cfg.AuthScheme
	if scheme == "" {
		scheme = "Bearer"
	}

	return &Client{
		http:   client,
		store:  store,
		scheme: scheme,
		skew:   cfg.RefreshSkew,
		now:    time.Now,
	}
}

// errCredentialsChanged 刷新期間憑證已被登入或登出取代
var errCredentialsChanged = errors.New("credentials changed during refresh")

// Store 憑證儲存（唯讀使用；寫入請經由 Login / Logout）
func (c *Client) Store() auth.Store {
	return c.store
}

// Login 以新的憑證取代目前的憑證；進行中的刷新結果將被捨棄
func (c *Client) Login(ctx context.Context, access, refresh string) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	c.gen++
	return c.store.Save(ctx, access, refresh)
}

// Logout 清除全部憑證；進行中的刷新結果將被捨棄
func (c *Client) Logout(ctx context.Context) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	c.gen++
	c.clear(ctx)
}

// snapshot 讀取目前的存取憑證與其世代
func (c *Client) snapshot(ctx context.Context) (string, uint64, error) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	access, err := c.store.Access(ctx)
	return access, c.gen, err
}

// clear 呼叫端須持有 credMu；請求已取消時仍要清除
func (c *Client) clear(ctx context.Context) {
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		common.LogError("Failed to clear credentials", zap.Error(err))
	}
}

// OnSessionExpired 註冊工作階段失效通知
func (c *Client) OnSessionExpired(fn ExpiredFunc) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Do 以目前的存取憑證送出請求
// 遇到 401（或憑證即將到期）時最多刷新一次並重送一次；
// 刷新失敗或重送後仍為 401 即清除憑證並回傳 SESSION_EXPIRED
func (c *Client) Do(ctx context.Context, call Call, send SendFunc) (*resty.Response, error) {
	var (
		st        = stateIdle
		refreshed bool
		access    string
		gen       uint64
		resp      *resty.Response
		failure   error
	)

	for st != stateSuccess && st != stateFailed {
		switch st {
		case stateIdle:
			token, g, err := c.snapshot(ctx)
			if err != nil {
				failure = common.ErrInternalError.Wrap(fmt.Errorf("failed to read access token: %w", err))
				st = stateFailed
				continue
			}
			access, gen = token, g
			if access == "" || auth.ExpiresWithin(access, c.skew, c.now()) {
				st = stateRefreshNeeded
			} else {
				st = stateSending
			}

		case stateRefreshNeeded:
			if refreshed {
				failure = c.expire(ctx, call, gen, errors.New("unauthorized after refresh"))
				st = stateFailed
				continue
			}
			refreshed = true

			token, err := c.refresh(ctx, access, gen)
			if err != nil {
				failure = c.refreshFailure(ctx, call, gen, err)
				st = stateFailed
				continue
			}
			access = token
			st = stateSending

		case stateSending:
			r, err := c.send(ctx, call, access, send)
			if err != nil {
				failure = err
				st = stateFailed
				continue
			}
			resp = r

			switch {
			case r.StatusCode() == http.StatusUnauthorized:
				st = stateRefreshNeeded
			case r.IsSuccess():
				st = stateSuccess
			default:
				failure = classify(r, call)
				st = stateFailed
			}
		}
	}

	if failure != nil {
		return resp, failure
	}
	return resp, nil
}

// send 送出一次並記錄
func (c *Client) send(ctx context.Context, call Call, access string, send SendFunc) (*resty.Response, error) {
	requestID := RequestIDFrom(ctx)
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", c.scheme+" "+access)
	if requestID != "" {
		req.SetHeader("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := send(req)
	if err != nil {
		common.LogBackendCall(call.Method, call.Path, 0, time.Since(start), err, requestID)
		if ctx.Err() != nil {
			return nil, common.ErrRequestTimeout.Wrap(ctx.Err())
		}
		return nil, common.ErrNetworkError.Wrap(err)
	}
	common.LogBackendCall(call.Method, call.Path, resp.StatusCode(), time.Since(start), nil, requestID)
	return resp, nil
}

// refreshFailure 區分刷新失敗的原因
// 只有後端拒絕刷新才視為工作階段失效；請求取消或連線失敗不動共用的憑證
func (c *Client) refreshFailure(ctx context.Context, call Call, gen uint64, err error) error {
	switch {
	case ctx.Err() != nil:
		common.LogWarn("Refresh abandoned",
			zap.String("call", call.Name),
			zap.Error(ctx.Err()),
			zap.String("request_id", RequestIDFrom(ctx)),
		)
		return common.ErrRequestTimeout.Wrap(ctx.Err())
	case common.HasCode(err, common.ErrCodeNetworkError):
		return err
	case errors.Is(err, errCredentialsChanged):
		// 憑證已屬於新的登入或已登出，這次請求不再重送
		return common.ErrSessionExpired.Wrap(err)
	default:
		return c.expire(ctx, call, gen, err)
	}
}

// refresh 以刷新憑證交換新的存取憑證
// stale 為呼叫端手上的舊憑證；若取得鎖時已被其他請求換新，直接沿用新值。
// gen 為讀取 stale 時的憑證世代；期間有登入或登出則放棄
func (c *Client) refresh(ctx context.Context, stale string, gen uint64) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.credMu.Lock()
	current, currentGen := "", c.gen
	refresh, err := c.store.Refresh(ctx)
	if err == nil {
		current, err = c.store.Access(ctx)
	}
	c.credMu.Unlock()

	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}
	if currentGen != gen {
		return "", errCredentialsChanged
	}
	if current != "" && current != stale && !auth.ExpiresWithin(current, c.skew, c.now()) {
		return current, nil
	}
	if refresh == "" {
		return "", errors.New("no refresh token")
	}

	var result struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"refresh": refresh}).
		Post(RefreshPath)
	if err != nil {
		common.LogBackendCall(http.MethodPost, RefreshPath, 0, time.Since(start), err, RequestIDFrom(ctx))
		return "", common.ErrNetworkError.Wrap(fmt.Errorf("refresh request failed: %w", err))
	}
	common.LogBackendCall(http.MethodPost, RefreshPath, resp.StatusCode(), time.Since(start), nil, RequestIDFrom(ctx))

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("refresh rejected with status %d", resp.StatusCode())
	}
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil || result.Access == "" {
		return "", fmt.Errorf("invalid refresh response")
	}

	if err := c.storeRefreshed(ctx, gen, refresh, result.Access, result.Refresh); err != nil {
		return "", err
	}

	common.LogInfo("Access token refreshed", zap.String("request_id", RequestIDFrom(ctx)))
	return result.Access, nil
}

// storeRefreshed 比對後寫入：世代與交換用的刷新憑證都未變才寫回
func (c *Client) storeRefreshed(ctx context.Context, gen uint64, used, access, rotated string) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	if c.gen != gen {
		return errCredentialsChanged
	}
	current, err := c.store.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to read refresh token: %w", err)
	}
	if current != used {
		return errCredentialsChanged
	}

	// 後端若啟用輪替會一併回傳新的刷新憑證
	if rotated != "" {
		err = c.store.Save(ctx, access, rotated)
	} else {
		err = c.store.SetAccess(ctx, access)
	}
	if err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	return nil
}

// expire 清除憑證並通知，回傳 SESSION_EXPIRED
// 憑證已被新的登入取代時不清除也不通知
func (c *Client) expire(ctx context.Context, call Call, gen uint64, cause error) error {
	common.LogWarn("工作階段已失效",
		zap.String("call", call.Name),
		zap.Error(cause),
		zap.String("request_id", RequestIDFrom(ctx)),
	)

	c.credMu.Lock()
	current := c.gen == gen
	if current {
		c.gen++
		c.clear(ctx)
	}
	c.credMu.Unlock()
	if !current {
		return common.ErrSessionExpired.Wrap(cause)
	}

	c.listenersMu.RLock()
	listeners := append([]ExpiredFunc(nil), c.listeners...)
	c.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(ctx)
	}
	return common.ErrSessionExpired.Wrap(cause)
}
