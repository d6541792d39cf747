package interfaces

import (
	"context"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// ChangelogUseCase generates release notes
type ChangelogUseCase interface {
	// Generate renders release notes for req and writes them to req.OutputFile when set
	Generate(ctx context.Context, req *model.ChangelogRequest) (string, error)
}

// BuildUseCase runs the packaging pipeline
type BuildUseCase interface {
	// Run builds installers for every architecture of req
	Run(ctx context.Context, req *model.BuildRequest) (*model.BuildReport, error)

	// Preview selects the release and assets without downloading anything
	Preview(ctx context.Context, req *model.BuildRequest) ([]model.Selection, error)
}
