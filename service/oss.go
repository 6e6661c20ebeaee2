package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"kroma-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactUploader 把生成的制品字节流落到对象存储，返回可访问的 URL。
type ArtifactUploader interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

// MinIOUploader 生成的视频制品存 MinIO，videoUrl 使用预签名 URL。
type MinIOUploader struct {
	client *minio.Client
	bucket string
}

// InitMinIO 初始化连接，在 main.go 中调用
func InitMinIO() *MinIOUploader {
	cfg := config.AppConfig.MinIO
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatalf("MinIO 初始化失败: %v", err)
	}
	log.Println("MinIO 连接成功")
	return &MinIOUploader{client: client, bucket: cfg.Bucket}
}

func (u *MinIOUploader) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	// 确保 Bucket 存在
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return "", fmt.Errorf("检查 Bucket 失败: %w", err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("创建 Bucket 失败: %w", err)
		}
		log.Printf("Bucket '%s' 已创建", u.bucket)
	}

	_, err = u.client.PutObject(ctx, u.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传到 MinIO 失败: %w", err)
	}

	// 预签名 URL（72 小时有效期）
	expiry := time.Hour * 72
	reqParams := make(url.Values)
	presignedURL, err := u.client.PresignedGetObject(ctx, u.bucket, objectName, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("生成签名 URL 失败: %w", err)
	}

	log.Printf("文件已上传: %s", objectName)
	return presignedURL.String(), nil
}
