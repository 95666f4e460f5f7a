package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG
	_ "image/png"  // 支援 PNG

	_ "golang.org/x/image/webp" // 支援 WebP

	"perfect-recipe/internal/pkg/common"
)

// Kind 附件類型
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Attachment 已檢查過的上傳附件
type Attachment struct {
	Kind        Kind
	FileName    string
	ContentType string
	Data        []byte
	Width       int // 僅圖片
	Height      int // 僅圖片
}

// Size 附件位元組數
func (a *Attachment) Size() int64 {
	return int64(len(a.Data))
}

// Service 附件檢查服務
type Service struct {
	maxImageBytes int64
	maxVideoBytes int64
}

// NewService 創建新的附件檢查服務
func NewService(maxImageBytes, maxVideoBytes int64) *Service {
	return &Service{
		maxImageBytes: maxImageBytes,
		maxVideoBytes: maxVideoBytes,
	}
}

// Image 檢查圖片附件：大小限制與可解碼格式
func (s *Service) Image(fileName string, data []byte) (*Attachment, error) {
	if len(data) == 0 {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("image data is empty"))
	}

	// 檢查文件大小
	if int64(len(data)) > s.maxImageBytes {
		return nil, common.ErrInvalidImageSize.Wrap(fmt.Errorf("image size exceeds maximum limit of %d bytes", s.maxImageBytes))
	}

	// 只解析標頭，不需完整解碼
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("failed to decode image: %w", err))
	}

	if !isSupportedFormat(format) {
		return nil, common.ErrInvalidImageFormat.Wrap(fmt.Errorf("unsupported image format: %s", format))
	}

	return &Attachment{
		Kind:        KindImage,
		FileName:    defaultFileName(fileName, "image", format),
		ContentType: "image/" + format,
		Data:        data,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

// Video 檢查影片附件：大小限制與 MIME 類型
func (s *Service) Video(fileName string, data []byte) (*Attachment, error) {
	if len(data) == 0 {
		return nil, common.ErrInvalidVideoType.Wrap(fmt.Errorf("video data is empty"))
	}

	if int64(len(data)) > s.maxVideoBytes {
		return nil, common.ErrInvalidVideoSize.Wrap(fmt.Errorf("video size exceeds maximum limit of %d bytes", s.maxVideoBytes))
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "video/") {
		// 副檔名不可信，只認檔頭
		byHeader := sniffVideoContainer(data)
		if byHeader == "" {
			return nil, common.ErrInvalidVideoType.Wrap(fmt.Errorf("unsupported video type: %s", contentType))
		}
		contentType = byHeader
	}

	return &Attachment{
		Kind:        KindVideo,
		FileName:    defaultFileName(fileName, "video", strings.TrimPrefix(contentType, "video/")),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// DecodeDataURI 解析 data:<mime>;base64,<data> 格式
func DecodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("invalid data uri format")
	}

	parts := strings.SplitN(uri, ",", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid base64 data format")
	}

	header := strings.TrimPrefix(parts[0], "data:")
	if !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("data uri is not base64 encoded")
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 data: %w", err)
	}

	return strings.TrimSuffix(header, ";base64"), decoded, nil
}

// PreviewURL 產生本地預覽用的 data URL
func PreviewURL(a *Attachment) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", a.ContentType, base64.StdEncoding.EncodeToString(a.Data))
}

// ebmlMagic Matroska / WebM 檔頭
var ebmlMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}

// sniffVideoContainer 辨識 http.DetectContentType 不認得的影片容器
// ISO BMFF 以 ftyp 品牌區分 QuickTime 與 MP4；舊式 QuickTime 以第一個 atom 判斷
func sniffVideoContainer(data []byte) string {
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		if string(data[8:12]) == "qt  " {
			return "video/quicktime"
		}
		return "video/mp4"
	}
	if len(data) >= 8 {
		switch string(data[4:8]) {
		case "moov", "mdat", "wide", "free", "skip":
			return "video/quicktime"
		}
	}
	if bytes.HasPrefix(data, ebmlMagic) {
		return "video/x-matroska"
	}
	return ""
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}

func defaultFileName(name, prefix, ext string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name != "" && name != "." && name != "/" {
		return name
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return prefix + "." + ext
}
