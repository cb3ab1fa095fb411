package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/barangayportal/barangay-portal-api/models"
)

// EvidenceUploader stores case evidence files in cloudinary. The upload
// subsystem is an optional dependency: when CLOUDINARY_URL is not set the
// portal runs without it and case filing answers 501.
type EvidenceUploader struct {
	cld *cloudinary.Cloudinary
}

// NewEvidenceUploader configures the uploader from CLOUDINARY_URL. A missing
// or malformed URL yields an unavailable uploader, not an error.
func NewEvidenceUploader() *EvidenceUploader {
	url := os.Getenv("CLOUDINARY_URL")
	if url == "" {
		zap.S().Warn("CLOUDINARY_URL not set, evidence uploads disabled")
		return &EvidenceUploader{}
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		zap.S().Errorw("failed to configure cloudinary, evidence uploads disabled", "error", err)
		return &EvidenceUploader{}
	}
	return &EvidenceUploader{cld: cld}
}

// Available reports whether the upload subsystem is configured
func (u *EvidenceUploader) Available() bool {
	return u != nil && u.cld != nil
}

// Upload pushes one multipart file to cloudinary and returns the evidence
// entry to embed in the case document.
func (u *EvidenceUploader) Upload(ctx context.Context, fh *multipart.FileHeader, uploadedBy string) (models.Evidence, error) {
	file, err := fh.Open()
	if err != nil {
		return models.Evidence{}, err
	}
	defer file.Close()

	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID: uuid.New().String(),
		Folder:   "case-evidence",
	})
	if err != nil {
		return models.Evidence{}, err
	}

	return models.Evidence{
		Kind:       evidenceKind(fh),
		Filename:   fh.Filename,
		URL:        resp.SecureURL,
		UploadedAt: primitive.NewDateTimeFromTime(time.Now()),
		UploadedBy: uploadedBy,
	}, nil
}

// evidenceKind buckets a multipart file by its declared content type
func evidenceKind(fh *multipart.FileHeader) string {
	contentType := fh.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	case contentType == "application/pdf", strings.HasPrefix(contentType, "text/"):
		return "document"
	default:
		return "other"
	}
}

// CloudinaryHandler handles Cloudinary related requests
type CloudinaryHandler struct{}

// GenerateSignature generates a signature for direct browser uploads
func (c CloudinaryHandler) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + uploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
