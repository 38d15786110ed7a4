package config

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	citychunk "github.com/citybound/citybound-sub001/internal/chunk"
)

// OpenHandler constructs the chunk.Handler a StorageConfig describes.
// Storage.Backend selects among the chunk package's heap, mmap, and S3
// handlers; embedders needing a different backend construct one
// directly and skip this helper.
func OpenHandler(ctx context.Context, sc StorageConfig, logger *slog.Logger) (citychunk.Handler, error) {
	switch sc.Backend {
	case "", "heap":
		return citychunk.NewHeapHandler(), nil
	case "mmap":
		if sc.Dir == "" {
			return nil, fmt.Errorf("config: mmap backend requires Dir")
		}
		if sc.CompressOnUnload {
			return citychunk.NewMmapHandlerCompressed(sc.Dir, logger)
		}
		return citychunk.NewMmapHandler(sc.Dir, logger)
	case "s3":
		if sc.Bucket == "" {
			return nil, fmt.Errorf("config: s3 backend requires Bucket")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("config: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg)
		return citychunk.NewS3Handler(client, sc.Bucket, sc.Prefix, logger), nil
	default:
		return nil, fmt.Errorf("config: unknown storage backend %q", sc.Backend)
	}
}
