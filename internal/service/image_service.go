package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	DefaultImageUploadDir       = "/tmp/inkwell/uploads/images"
	DefaultImageMaxUploadSizeMB = 10
	MasterMaxSize               = 2048
	WebPQuality                 = 70
)

// variantWidths is the ladder of downscaled widths generated per upload.
var variantWidths = []int{256, 640, 1080}

type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

type ImageService struct {
	repo               repository.ImageRepository
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewImageService(repo repository.ImageRepository, cfg *config.Config) *ImageService {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		repo:               repo,
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Upload validates and stores an image, re-encoding it as WebP at the master
// size plus the variant ladder. Re-uploading identical content by the same
// user returns the existing record.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detectedType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	objectKey := buildObjectKey(in.UserID, in.Content)
	if existing, err := s.repo.GetByObjectKey(ctx, objectKey); err == nil {
		return existing, nil
	}

	master := resizeToFit(decoded, MasterMaxSize, MasterMaxSize)
	masterBytes, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(s.pathFor(objectKey, 0), masterBytes); err != nil {
		return nil, models.NewInternalError(err)
	}

	bounds := master.Bounds()
	var generated []string
	for _, w := range variantWidths {
		if bounds.Dx() <= w {
			continue
		}
		resized := resizeToFit(master, w, MasterMaxSize)
		variantBytes, err := encodeWebP(resized, WebPQuality)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if err := writeBytesToFile(s.pathFor(objectKey, w), variantBytes); err != nil {
			return nil, models.NewInternalError(err)
		}
		generated = append(generated, strconv.Itoa(w))
	}

	record := &models.Image{
		UserID:      in.UserID,
		ObjectKey:   objectKey,
		ContentType: "image/webp",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Variants:    strings.Join(generated, ","),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ResolveForServing maps an object key and optional variant width to a file
// on disk. The key is validated as lowercase hex before it touches a path.
func (s *ImageService) ResolveForServing(ctx context.Context, objectKey string, width int) (*models.Image, string, error) {
	if !isValidObjectKey(objectKey) {
		return nil, "", models.NewValidationError("Invalid image key")
	}
	img, err := s.repo.GetByObjectKey(ctx, objectKey)
	if err != nil {
		return nil, "", err
	}

	if width > 0 && !hasVariant(img.Variants, width) {
		width = 0
	}
	fullPath := s.pathFor(objectKey, width)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil, "", models.NewNotFoundError("Image", objectKey)
		}
		return nil, "", models.NewInternalError(err)
	}
	return img, fullPath, nil
}

func (s *ImageService) ListUserImages(ctx context.Context, userID uint, limit, offset int) ([]models.Image, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *ImageService) pathFor(objectKey string, width int) string {
	name := objectKey + ".webp"
	if width > 0 {
		name = objectKey + "_" + strconv.Itoa(width) + ".webp"
	}
	return filepath.Join(s.uploadDir, name)
}

func hasVariant(variants string, width int) bool {
	want := strconv.Itoa(width)
	for _, v := range strings.Split(variants, ",") {
		if v == want {
			return true
		}
	}
	return false
}

// isValidObjectKey checks that the key is strictly lowercase hex (SHA-256
// style). This prevents path traversal via crafted key parameters.
func isValidObjectKey(key string) bool {
	if len(key) == 0 || len(key) > 128 {
		return false
	}
	for _, c := range key {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func buildObjectKey(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
