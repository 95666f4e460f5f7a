package recipe

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"perfect-recipe/internal/api/handlers"
	"perfect-recipe/internal/core/media"
	recipeService "perfect-recipe/internal/core/recipe"
	"perfect-recipe/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

const (
	// multipart 表單中草稿 JSON 的欄位名稱
	draftField = "draft"
	imageField = "image"
	videoField = "video"

	maxMultipartMemory = 32 << 20
)

// DraftRequest JSON 形式的草稿；附件以 data URI 傳入
type DraftRequest struct {
	recipeService.Draft
	ImageData string `json:"image_data,omitempty"`
	ImageName string `json:"image_name,omitempty"`
	VideoData string `json:"video_data,omitempty"`
	VideoName string `json:"video_name,omitempty"`
}

// readDraft 解析請求中的草稿與附件
// 支援 multipart（draft 欄位 + image/video 檔案）與純 JSON 兩種格式
func (h *Handler) readDraft(c *gin.Context) (*recipeService.Draft, error) {
	var req DraftRequest

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("invalid multipart form: %w", err))
		}
		raw := c.Request.FormValue(draftField)
		if raw == "" {
			return nil, common.NewFieldError(common.ErrCodeInvalidRequest, common.ErrInvalidRequest.Message,
				http.StatusBadRequest, map[string]string{draftField: "Draft JSON is required"})
		}
		if err := common.ParseJSON(raw, &req); err != nil {
			return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("invalid draft JSON: %w", err))
		}
	} else if err := handlers.BindJSON(c, &req); err != nil {
		return nil, err
	}

	d := &req.Draft
	if d.ID == "" {
		d.ID = common.GenerateUUID()
	}

	if err := h.attachFiles(c, d); err != nil {
		return nil, err
	}
	if err := h.attachDataURIs(&req); err != nil {
		return nil, err
	}
	return d, nil
}

// attachFiles 讀取 multipart 中的圖片與影片
func (h *Handler) attachFiles(c *gin.Context, d *recipeService.Draft) error {
	if c.Request.MultipartForm == nil {
		return nil
	}

	if fh := firstFile(c.Request.MultipartForm, imageField); fh != nil {
		data, err := readFile(fh)
		if err != nil {
			return err
		}
		a, err := h.media.Image(fh.Filename, data)
		if err != nil {
			return err
		}
		d.SetImage(a)
	}

	if fh := firstFile(c.Request.MultipartForm, videoField); fh != nil {
		data, err := readFile(fh)
		if err != nil {
			return err
		}
		a, err := h.media.Video(fh.Filename, data)
		if err != nil {
			return err
		}
		d.SetVideo(a)
	}
	return nil
}

// attachDataURIs 解析 JSON 請求中的 data URI 附件
func (h *Handler) attachDataURIs(req *DraftRequest) error {
	if req.ImageData != "" {
		mimeType, data, err := media.DecodeDataURI(req.ImageData)
		if err != nil {
			return common.ErrInvalidImageFormat.Wrap(err)
		}
		a, err := h.media.Image(nameFor(req.ImageName, "image", mimeType), data)
		if err != nil {
			return err
		}
		req.SetImage(a)
	}

	if req.VideoData != "" {
		mimeType, data, err := media.DecodeDataURI(req.VideoData)
		if err != nil {
			return common.ErrInvalidVideoType.Wrap(err)
		}
		a, err := h.media.Video(nameFor(req.VideoName, "video", mimeType), data)
		if err != nil {
			return err
		}
		req.SetVideo(a)
	}
	return nil
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if files := form.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("failed to open %s: %w", fh.Filename, err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, common.ErrInvalidRequest.Wrap(fmt.Errorf("failed to read %s: %w", fh.Filename, err))
	}
	return data, nil
}

// nameFor data URI 沒有檔名，依 MIME 類型補上副檔名
func nameFor(name, prefix, mimeType string) string {
	if name != "" {
		return name
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return prefix + exts[0]
	}
	return ""
}
