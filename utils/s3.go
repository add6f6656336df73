package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var ErrInvalidImage = errors.New("invalid base64 image")

// DecodeDataURI splits "data:image/<type>;base64,<data>" into its content
// type and decoded bytes.
func DecodeDataURI(dataURI string) (string, []byte, error) {
	meta, data, ok := strings.Cut(dataURI, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrInvalidImage
	}
	contentType, _, _ := strings.Cut(strings.TrimPrefix(meta, "data:"), ";")
	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(img) == 0 {
		return "", nil, ErrInvalidImage
	}
	return contentType, img, nil
}

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores images publicly and returns their CDN URL.
type S3Uploader struct {
	client  S3API
	bucket  string
	baseURL string
}

func NewS3Uploader(client S3API, bucket, baseURL string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// UploadDataURI uploads "data:<mime>;base64,<data>" under folder/prefix-<nanos><ext>.
func (u *S3Uploader) UploadDataURI(ctx context.Context, dataURI, folder, prefix string) (string, error) {
	contentType, imageData, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s-%d%s", folder, prefix, time.Now().UnixNano(), imageExt(contentType))
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return fmt.Sprintf("%s/%s", u.baseURL, key), nil
}

func imageExt(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok {
		return "." + sub
	}
	return ""
}
