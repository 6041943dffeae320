package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/shamseergtct/gtct-analytics/config"
	"google.golang.org/api/option"
)

var ErrStorageNotConfigured = errors.New("GCS_BUCKET is required")

func storageBucket() (string, error) {
	bucket := strings.TrimSpace(config.GetSettings().Storage.Bucket)
	if bucket == "" {
		return "", ErrStorageNotConfigured
	}
	return bucket, nil
}

// GetGCSClient returns a storage client. ADC is used unless GCS_CREDENTIALS_JSON is set.
func GetGCSClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := strings.TrimSpace(config.GetSettings().Storage.CredentialsJSON); credJSON != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func UploadBytesToGCS(ctx context.Context, objectName string, data []byte, contentType string) error {
	bucket, err := storageBucket()
	if err != nil {
		return err
	}
	client, err := GetGCSClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close writer %s: %w", objectName, err)
	}
	return nil
}

// ReadObjectFromGCS downloads at most limit bytes of an object.
func ReadObjectFromGCS(ctx context.Context, objectName string, limit int64) ([]byte, string, error) {
	bucket, err := storageBucket()
	if err != nil {
		return nil, "", err
	}
	client, err := GetGCSClient(ctx)
	if err != nil {
		return nil, "", err
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", ErrorRecordNotFound
		}
		return nil, "", err
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, "", err
	}
	return data, r.Attrs.ContentType, nil
}

func ObjectExistsInGCS(ctx context.Context, objectName string) (bool, error) {
	bucket, err := storageBucket()
	if err != nil {
		return false, err
	}
	client, err := GetGCSClient(ctx)
	if err != nil {
		return false, err
	}
	defer client.Close()

	if _, err = client.Bucket(bucket).Object(objectName).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func DeleteObjectFromGCS(ctx context.Context, objectName string) error {
	bucket, err := storageBucket()
	if err != nil {
		return err
	}
	client, err := GetGCSClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	err = client.Bucket(bucket).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func BuildObjectAccessURL(objectKey string) string {
	s := config.GetSettings().Storage
	if base := strings.TrimSpace(s.AccessBaseURL); base != "" {
		if strings.Contains(base, "{objectKey}") {
			return strings.ReplaceAll(base, "{objectKey}", url.QueryEscape(objectKey))
		}
		return strings.TrimRight(base, "/") + "/" + objectKey
	}
	if s.URL != "" && s.Bucket != "" {
		return "https://" + s.URL + "/" + s.Bucket + "/" + objectKey
	}
	return objectKey
}

// ExtractObjectKeyFromURL accepts raw keys, gs:// URLs and the public URL forms.
func ExtractObjectKeyFromURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.Contains(rawURL, "..") {
		return ""
	}
	if !strings.Contains(rawURL, "://") && !strings.HasPrefix(rawURL, "/") {
		return rawURL
	}
	if strings.HasPrefix(rawURL, "gs://") {
		parts := strings.SplitN(strings.TrimPrefix(rawURL, "gs://"), "/", 2)
		if len(parts) == 2 {
			return parts[1]
		}
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if key := parsed.Query().Get("objectKey"); key != "" {
		return key
	}
	host := strings.ToLower(parsed.Host)
	p := strings.TrimPrefix(parsed.Path, "/")
	switch {
	case host == "storage.googleapis.com" || host == "storage.cloud.google.com":
		if parts := strings.SplitN(p, "/", 2); len(parts) == 2 {
			return parts[1]
		}
	case strings.HasSuffix(host, ".storage.googleapis.com"):
		return p
	}
	return ""
}
