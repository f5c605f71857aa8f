package worker

import (
	"context"
)

// Worker - долгоживущий потребитель очереди
type Worker interface {
	// Start блокируется до Stop или отмены ctx
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// BatchProcessor - воркер, умеющий разобрать одну пачку сообщений синхронно
type BatchProcessor interface {
	Worker
	ProcessBatch(ctx context.Context) (int, error)
}
