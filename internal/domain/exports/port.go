package exports

import "context"

// Repository port for persisting and querying exports
type Repository interface {
	Save(ctx context.Context, e *Export) error
	Paginate(ctx context.Context, projectID string, page, pageSize int) ([]*Export, int64, error)
	LatestByProject(ctx context.Context, projectID string) (*Export, error)
}

// ArtifactStore port (interface untuk penyimpanan file report)
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Upload(ctx context.Context, localPath, key string) (string, error)
}
