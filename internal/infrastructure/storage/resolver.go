package storage

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/building-discovery/internal/config"
	"github.com/building-discovery/internal/pkg/logger"
)

const publicObjectPath = "/storage/v1/object/public/"

// Resolver превращает путь к изображению в публичный URL хранилища
type Resolver struct {
	base   string
	bucket string
	logger *zap.Logger
}

func NewResolver(cfg *config.StorageConfig, log *zap.Logger) *Resolver {
	return &Resolver{
		base:   strings.TrimRight(cfg.PublicURL, "/"),
		bucket: strings.Trim(cfg.Bucket, "/"),
		logger: logger.OrNop(log),
	}
}

// Resolve возвращает абсолютный URL. Абсолютные ссылки отдаются как есть,
// пустой путь даёт false.
func (r *Resolver) Resolve(path string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}

	if u, err := url.Parse(path); err == nil && u.IsAbs() && u.Host != "" {
		return path, true
	}

	if r.base == "" {
		r.logger.Debug("Storage public URL is not configured", zap.String("path", path))
		return "", false
	}

	path = strings.TrimLeft(path, "/")
	if r.bucket != "" {
		path = strings.TrimPrefix(path, r.bucket+"/")
	}

	escaped := make([]string, 0, 4)
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		escaped = append(escaped, url.PathEscape(seg))
	}
	if len(escaped) == 0 {
		return "", false
	}

	return r.base + publicObjectPath + r.bucket + "/" + strings.Join(escaped, "/"), true
}
