package uploads

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/pkg/config"
)

const presignTTL = 15 * time.Minute

// Store tracks upload metadata in the database and hands out presigned
// S3 URLs so file bytes go straight between the browser and the bucket.
type Store struct {
	db      *gorm.DB
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
	logger  *slog.Logger
}

func NewStore(ctx context.Context, db *gorm.DB, cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		db:      db,
		bucket:  cfg.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
		logger:  logger,
	}, nil
}

// PresignedUpload holds everything a client needs to PUT a file.
type PresignedUpload struct {
	Upload *models.Upload
	URL    string
}

// CreateUpload records the metadata row and returns a presigned PUT URL.
// The object key namespaces files by organization so one tenant can
// never guess another's keys.
func (s *Store) CreateUpload(ctx context.Context, orgID, userID uuid.UUID, fileName, contentType string, sizeBytes int64) (*PresignedUpload, error) {
	upload := &models.Upload{
		OrganizationID: orgID,
		UploadedByID:   &userID,
		FileName:       fileName,
		ContentType:    contentType,
		SizeBytes:      sizeBytes,
		ObjectKey:      path.Join(orgID.String(), uuid.New().String(), fileName),
	}

	if err := s.db.WithContext(ctx).Create(upload).Error; err != nil {
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(upload.ObjectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return nil, fmt.Errorf("presigning upload: %w", err)
	}

	s.logger.Debug("presigned upload", "upload_id", upload.ID, "file", fileName)
	return &PresignedUpload{Upload: upload, URL: req.URL}, nil
}

// PutObject writes bytes straight to the bucket and records the
// metadata row. Used by the worker for generated files; interactive
// uploads go through CreateUpload instead.
func (s *Store) PutObject(ctx context.Context, orgID, userID uuid.UUID, fileName, contentType string, data []byte) (*models.Upload, error) {
	upload := &models.Upload{
		OrganizationID: orgID,
		UploadedByID:   &userID,
		FileName:       fileName,
		ContentType:    contentType,
		SizeBytes:      int64(len(data)),
		ObjectKey:      path.Join(orgID.String(), uuid.New().String(), fileName),
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(upload.ObjectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("writing object: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(upload).Error; err != nil {
		return nil, fmt.Errorf("recording upload: %w", err)
	}
	return upload, nil
}

// DownloadURL returns a presigned GET URL for an upload owned by orgID.
func (s *Store) DownloadURL(ctx context.Context, orgID, uploadID uuid.UUID) (string, error) {
	var upload models.Upload
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", uploadID, orgID).
		First(&upload).Error
	if err != nil {
		return "", err
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(upload.ObjectKey),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("presigning download: %w", err)
	}
	return req.URL, nil
}

// List returns upload metadata for an organization, newest first.
func (s *Store) List(ctx context.Context, orgID uuid.UUID) ([]models.Upload, error) {
	var items []models.Upload
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// Delete removes the metadata row and the backing object.
func (s *Store) Delete(ctx context.Context, orgID, uploadID uuid.UUID) error {
	var upload models.Upload
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", uploadID, orgID).
		First(&upload).Error
	if err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(upload.ObjectKey),
	}); err != nil {
		// The row stays so a retry can clean up the object later.
		return fmt.Errorf("deleting object %s: %w", upload.ObjectKey, err)
	}

	return s.db.WithContext(ctx).Delete(&upload).Error
}
