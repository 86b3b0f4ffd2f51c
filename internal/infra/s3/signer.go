package s3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	// ErrMissingKey はオブジェクトキーが空の場合のエラー
	ErrMissingKey = errors.New("object key is required")

	// ErrMissingBucket はバケットが解決できない場合のエラー
	ErrMissingBucket = errors.New("bucket is required")
)

// Signer は保存済み音声への時限付き署名URLを発行する。
// 認証情報はAWS SDKの既定プロバイダチェーンで解決する。
type Signer struct {
	presigner     *awss3.PresignClient
	defaultBucket string
}

// NewSigner はリージョンとデフォルトバケットを指定してSignerを作成する
func NewSigner(ctx context.Context, region, defaultBucket string) (*Signer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := awss3.NewFromConfig(cfg)

	return &Signer{
		presigner:     awss3.NewPresignClient(client),
		defaultBucket: defaultBucket,
	}, nil
}

// SignedURL はGetObject用の署名URLを発行する。
// bucketが空の場合はデフォルトバケットを使用する。
func (s *Signer) SignedURL(ctx context.Context, key, bucket string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", ErrMissingKey
	}
	if bucket == "" {
		bucket = s.defaultBucket
	}
	if bucket == "" {
		return "", ErrMissingBucket
	}

	req, err := s.presigner.PresignGetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, awss3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object url: %w", err)
	}

	return req.URL, nil
}
