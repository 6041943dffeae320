package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/middlewares"
	"github.com/shamseergtct/gtct-analytics/models"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/sirupsen/logrus"
)

type uploadSignRequest struct {
	ClientId      string `json:"clientId" binding:"required"`
	TransactionId int    `json:"transactionId"`
	FileName      string `json:"fileName" binding:"required"`
	MimeType      string `json:"mimeType" binding:"required"`
	Size          int64  `json:"size" binding:"required"`
}

type uploadCompleteRequest struct {
	ClientId      string `json:"clientId" binding:"required"`
	TransactionId int    `json:"transactionId" binding:"required"`
	ObjectKey     string `json:"objectKey" binding:"required"`
	MimeType      string `json:"mimeType"`
}

type uploadSignResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	AccessURL string            `json:"accessUrl"`
	ExpiresAt string            `json:"expiresAt"`
}

const (
	maxUploadSizeBytes int64 = 5 * 1024 * 1024
	receiptsFolder           = "receipts"
	thumbnailWidth           = 200
)

var receiptMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// authorizeClient applies the client scope rules to a client named in a request body.
func authorizeClient(ctx context.Context, clientId string, write bool) error {
	if clientId == "" || strings.ContainsAny(clientId, "/.") {
		return errors.New("invalid clientId")
	}
	role := middlewares.CurrentUserRole(ctx)
	if role != models.UserRoleSuperAdmin {
		shops, _ := utils.GetAssignedShopsFromContext(ctx)
		if !utils.Contains(shops, clientId) {
			return utils.ErrForbidden
		}
	}
	if write && !role.CanWrite() {
		return utils.ErrForbidden
	}
	return nil
}

func signUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		var req uploadSignRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := authorizeClient(c.Request.Context(), req.ClientId, true); err != nil {
			respondError(c, err)
			return
		}
		if req.Size <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size is required"})
			return
		}
		if req.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
			return
		}
		if !receiptMimeTypes[req.MimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
			return
		}
		ext := strings.ToLower(filepath.Ext(req.FileName))
		if ext == "" {
			ext = extensionFromMimeType(req.MimeType)
		}

		objectKey := receiptObjectKey(req.ClientId, ext)
		signed, err := utils.SignUpload(c.Request.Context(), objectKey, req.MimeType, 15*time.Minute)
		if err != nil {
			logUploadError(logger, err, "sign", requestIDFromHeaders(c))
			if errors.Is(err, utils.ErrStorageNotConfigured) {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign upload"})
			return
		}

		logger.WithFields(logrus.Fields{
			"client_id":      req.ClientId,
			"transaction_id": req.TransactionId,
			"mime_type":      req.MimeType,
			"size":           req.Size,
			"object_key":     objectKey,
		}).Info("[upload.sign]")

		c.JSON(http.StatusOK, gin.H{
			"data": uploadSignResponse{
				UploadURL: signed.UploadURL,
				Method:    signed.Method,
				Headers:   signed.Headers,
				ObjectKey: signed.ObjectKey,
				AccessURL: signed.AccessURL,
				ExpiresAt: signed.ExpiresAt.UTC().Format(time.RFC3339),
			},
		})
	}
}

// completeUploadHandler links an uploaded receipt to its transaction, adding a
// thumbnail for images.
func completeUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		var req uploadCompleteRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx := c.Request.Context()
		if err := authorizeClient(ctx, req.ClientId, true); err != nil {
			respondError(c, err)
			return
		}
		if !isReceiptKeyOf(req.ClientId, req.ObjectKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid object key"})
			return
		}
		ctx = utils.SetClientIdInContext(ctx, req.ClientId)

		input := models.NewAttachment{
			TransactionId: req.TransactionId,
			ObjectKey:     req.ObjectKey,
			MimeType:      req.MimeType,
		}
		if strings.HasPrefix(req.MimeType, "image/") {
			thumbnailKey, err := createThumbnail(ctx, req.ObjectKey)
			if err != nil {
				logUploadError(logger, err, "thumbnail", requestIDFromHeaders(c))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate thumbnail"})
				return
			}
			input.ThumbnailKey = thumbnailKey
		}
		attachment, err := models.CreateAttachment(ctx, &input)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"client_id":  req.ClientId,
			"object_key": req.ObjectKey,
			"status":     "completed",
		}).Info("[upload.complete]")
		c.JSON(http.StatusOK, gin.H{"data": attachment})
	}
}

// uploadObjectHandler streams a stored receipt back through the API.
func uploadObjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		objectKey := strings.TrimSpace(c.Query("key"))
		if objectKey == "" || strings.Contains(objectKey, "..") || strings.HasPrefix(objectKey, "/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
			return
		}
		clientId := strings.SplitN(objectKey, "/", 2)[0]
		if err := authorizeClient(c.Request.Context(), clientId, false); err != nil {
			respondError(c, err)
			return
		}
		data, contentType, err := utils.ReadObjectFromGCS(c.Request.Context(), objectKey, maxUploadSizeBytes)
		if err != nil {
			respondError(c, err)
			return
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func createThumbnail(ctx context.Context, objectKey string) (string, error) {
	data, _, err := utils.ReadObjectFromGCS(ctx, objectKey, maxUploadSizeBytes+1)
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxUploadSizeBytes {
		return "", errors.New("file size exceeds 5MB limit")
	}
	thumbnail, err := makeThumbnail(data)
	if err != nil {
		return "", err
	}
	thumbnailKey := thumbnailObjectKey(objectKey)
	if err := utils.UploadBytesToGCS(ctx, thumbnailKey, thumbnail, "image/jpeg"); err != nil {
		return "", err
	}
	return thumbnailKey, nil
}

// makeThumbnail scales an image to thumbnailWidth keeping its aspect ratio, as JPEG.
func makeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func receiptObjectKey(clientId string, ext string) string {
	return path.Join(clientId, receiptsFolder, uuid.NewString()+ext)
}

func isReceiptKeyOf(clientId string, objectKey string) bool {
	return !strings.Contains(objectKey, "..") &&
		strings.HasPrefix(objectKey, clientId+"/"+receiptsFolder+"/")
}

func thumbnailObjectKey(objectKey string) string {
	return path.Join(path.Dir(objectKey), "thumbnails", path.Base(objectKey))
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}

func logUploadError(logger *logrus.Logger, err error, stage string, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"stage":      stage,
		"request_id": requestID,
	}).Error("[upload.error]")
}

func requestIDFromHeaders(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(middlewares.CorrelationHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader("X-Request-Id")); id != "" {
		return id
	}
	return fmt.Sprintf("upload-%d", time.Now().UnixNano())
}
