// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/config"
	"github.com/javajoker/certportal-backend/internal/metrics"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/utils"
)

const (
	backendS3    = "s3"
	backendLocal = "local"
)

// StorageService stores supporting documents in S3 when credentials are
// configured and in the local upload directory otherwise.
type StorageService struct {
	s3Client *s3.S3
	aws      config.AWSConfig
	upload   config.UploadConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

type UploadedDocument struct {
	models.SupportingDocument
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Checksum string `json:"checksum"`
	key      string
}

func NewStorageService(awsCfg config.AWSConfig, uploadCfg config.UploadConfig, m *metrics.Metrics) (*StorageService, error) {
	s := &StorageService{
		aws:     awsCfg,
		upload:  uploadCfg,
		metrics: m,
		now:     time.Now,
	}

	if !awsCfg.S3Enabled() {
		// Local storage for development
		return s, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(awsCfg.Region),
		Credentials: credentials.NewStaticCredentials(
			awsCfg.AccessKeyID,
			awsCfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s.s3Client = s3.New(sess)
	return s, nil
}

func (s *StorageService) Backend() string {
	if s.s3Client != nil {
		return backendS3
	}
	return backendLocal
}

// MaxRequestBytes bounds a whole multipart upload request.
func (s *StorageService) MaxRequestBytes() int64 {
	return int64(s.upload.MaxFiles)*s.upload.MaxFileSize + 1<<20
}

// UploadDocuments validates and stores a batch of supporting documents.
// documentTypes is matched to files by position; missing entries default to
// the file name. Either every file is stored or none is.
func (s *StorageService) UploadDocuments(ctx context.Context, caller Caller, files []*multipart.FileHeader, documentTypes []string) ([]UploadedDocument, error) {
	if err := caller.require(models.RoleCitizen, ""); err != nil {
		return nil, err
	}
	if err := s.validateBatch(files); err != nil {
		return nil, err
	}

	folder := path.Join("documents", caller.ID.String())
	uploaded := make([]UploadedDocument, 0, len(files))
	for i, header := range files {
		doc, err := s.put(ctx, header, folder)
		if err != nil {
			s.cleanup(uploaded)
			return nil, apperrors.Dependency("failed to store document", err)
		}

		doc.DocumentType = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
		if i < len(documentTypes) && strings.TrimSpace(documentTypes[i]) != "" {
			doc.DocumentType = strings.TrimSpace(documentTypes[i])
		}
		uploaded = append(uploaded, *doc)
	}

	s.metrics.AddDocumentsUploaded(s.Backend(), len(uploaded))
	return uploaded, nil
}

func (s *StorageService) validateBatch(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return apperrors.Validation(apperrors.Field("documents", "required", "at least one document is required"))
	}
	if len(files) > s.upload.MaxFiles {
		return apperrors.Validation(apperrors.Field("documents", "max", fmt.Sprintf("at most %d documents can be uploaded at once", s.upload.MaxFiles)))
	}

	var fields []apperrors.FieldError
	for i, header := range files {
		field := fmt.Sprintf("documents[%d]", i)
		if header.Size > s.upload.MaxFileSize {
			fields = append(fields, apperrors.Field(field, "max",
				fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", header.Size, s.upload.MaxFileSize)))
			continue
		}
		if !s.allowedExtension(header.Filename) {
			fields = append(fields, apperrors.Field(field, "oneof",
				fmt.Sprintf("file type %s is not allowed", strings.ToLower(filepath.Ext(header.Filename)))))
		}
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields...)
	}
	return nil
}

func (s *StorageService) allowedExtension(filename string) bool {
	fileExt := strings.ToLower(filepath.Ext(filename))
	for _, allowedType := range s.upload.AllowedExtensions {
		if fileExt == strings.ToLower(allowedType) {
			return true
		}
	}
	return false
}

func (s *StorageService) put(ctx context.Context, header *multipart.FileHeader, folder string) (*UploadedDocument, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(file, s.upload.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(fileBytes)) > s.upload.MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds maximum allowed size", header.Filename)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(fileBytes)
	}

	key := s.generateFileName(header.Filename, folder)

	var url string
	if s.s3Client != nil {
		url, err = s.uploadToS3(ctx, fileBytes, key, contentType)
	} else {
		url, err = s.uploadToLocal(fileBytes, key)
	}
	if err != nil {
		return nil, err
	}

	return &UploadedDocument{
		SupportingDocument: models.SupportingDocument{
			DocumentURL: url,
			UploadedAt:  s.now().UTC(),
		},
		FileName: header.Filename,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
		Checksum: utils.FileChecksum(fileBytes),
		key:      key,
	}, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, fileBytes []byte, key, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.getS3URL(key), nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key string) (string, error) {
	fullPath := filepath.Join(s.upload.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(fullPath, fileBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return strings.TrimRight(s.upload.PublicURL, "/") + "/" + key, nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	if s.s3Client == nil {
		if err := os.Remove(filepath.Join(s.upload.Dir, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.aws.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *StorageService) cleanup(uploaded []UploadedDocument) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, doc := range uploaded {
		if err := s.DeleteFile(ctx, doc.key); err != nil {
			logrus.WithField("key", doc.key).WithError(err).Warn("Failed to remove partially uploaded document")
		}
	}
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	timestamp := s.now().UTC().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String(), ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}
	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.aws.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.aws.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.aws.S3Bucket, s.aws.Region, key)
}
