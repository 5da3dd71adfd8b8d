package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"easytest_backend/internal/config"
	"easytest_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 导入文档的归档存储
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

// LocalStorageProvider 本地目录实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filename)
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}

	return "/uploads/" + filename, nil
}

// MinioStorageProvider MinIO 实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/%s/%s", p.Config.MinioBucket, filename), nil
}

// StorageService 按配置选择归档后端
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	if cfg.Storage.Type == "minio" {
		provider, err := NewMinioStorageProvider(&cfg.Storage)
		if err == nil {
			return &StorageService{Provider: provider}
		}
		logger.Log.Warn("minio unavailable, falling back to local storage", zap.Error(err))
	}
	return &StorageService{Provider: &LocalStorageProvider{Config: &cfg.Storage}}
}

// ArchiveImport 留档原始导入文档，失败只记日志不阻断导入
func (s *StorageService) ArchiveImport(ctx context.Context, kind string, raw []byte) {
	filename := fmt.Sprintf("imports/%s/%s-%s.json", kind, time.Now().Format("20060102"), uuid.New().String())
	if _, err := s.Provider.Upload(ctx, filename, bytes.NewReader(raw), int64(len(raw)), "application/json"); err != nil {
		logger.Log.Warn("failed to archive import document", zap.String("file", filename), zap.Error(err))
	}
}
