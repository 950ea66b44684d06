package usecase

import (
	"context"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/utils"
)

// UploadSource exposes one tabular export through the SourceAdapter contract,
// so fallback data follows the same fetch and reconcile path as live data.
type UploadSource struct {
	parser *utils.ReportParser
	upload entity.Upload
}

// NewUploadSource wraps an export
func NewUploadSource(parser *utils.ReportParser, upload entity.Upload) *UploadSource {
	return &UploadSource{parser: parser, upload: upload}
}

var _ repository.SourceAdapter = (*UploadSource)(nil)

// Source identifies the adapter
func (s *UploadSource) Source() entity.Source {
	return entity.SourceCSV
}

// Fetch parses the export when it feeds the requested kind. The window is
// ignored: an export carries exactly the rows it was generated with.
func (s *UploadSource) Fetch(ctx context.Context, kind entity.EntityKind, _ entity.TimeWindow) (*entity.Batch, error) {
	if s.upload.Type.Kind() != kind {
		return &entity.Batch{Kind: kind, Source: entity.SourceCSV, FetchedAt: s.upload.ExportedAt}, nil
	}
	return s.parser.Parse(ctx, s.upload)
}
