package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"perfect-recipe/internal/pkg/common"
)

const defaultDedupWindow = time.Second

// Deduplicator 記錄近期送出的請求指紋
type Deduplicator struct {
	window time.Duration

	mu        sync.Mutex
	requests  map[string]time.Time
	lastSweep time.Time
}

// NewDeduplicator 創建去重器；window 內相同的送出視為重複
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &Deduplicator{
		window:    window,
		requests:  make(map[string]time.Time),
		lastSweep: time.Now(),
	}
}

// seen 記錄指紋；window 內已出現過時回傳 true
func (d *Deduplicator) seen(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 順帶清理過期指紋，不另開 goroutine
	if now.Sub(d.lastSweep) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.lastSweep = now
	}

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Handler 請求去重中間件，只處理會寫入的方法
func (d *Deduplicator) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut:
		default:
			c.Next()
			return
		}

		hash := sha256.New()
		hash.Write([]byte(c.Request.Method + ":" + c.Request.URL.Path + ":"))
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrPayloadTooLarge.ToResponse())
					return
				}
				common.LogError("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrInvalidRequest.ToResponse())
				return
			}
			if digest, ok := multipartDigest(c.ContentType(), c.GetHeader("Content-Type"), body); ok {
				hash.Write(digest)
			} else {
				hash.Write(body)
			}

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		fingerprint := hex.EncodeToString(hash.Sum(nil))

		if d.seen(fingerprint, time.Now()) {
			common.LogWarn("Duplicate submission rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrTooManyRequests.ToResponse())
			return
		}

		c.Next()
	}
}

// multipartDigest 以各欄位內容計算 multipart 指紋，不受 boundary 與欄位順序影響
func multipartDigest(mediaType, header string, body []byte) ([]byte, bool) {
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, false
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil || params["boundary"] == "" {
		return nil, false
	}

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	var parts []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, false
		}
		sum := sha256.Sum256(data)
		parts = append(parts, part.FormName()+"\x00"+part.FileName()+"\x00"+hex.EncodeToString(sum[:]))
	}
	sort.Strings(parts)
	return []byte(strings.Join(parts, "\n")), true
}
