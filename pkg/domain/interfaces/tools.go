package interfaces

import (
	"context"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// Extractor unpacks an archive into a destination directory
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) (*model.ExtractResult, error)
}

// InstallerCompiler turns a script plus definitions into an installer.
// A non-zero exit code is reported in the result and as an error.
type InstallerCompiler interface {
	Compile(ctx context.Context, script string, defines map[string]string) (*model.CompileResult, error)
}

// Hasher fingerprints a file. Digests are returned in a fixed order.
type Hasher interface {
	Hash(ctx context.Context, path string) ([]model.Digest, error)
}

// ArtifactStore publishes a produced file
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, objectName string) (string, error)
}

// BuildRecorder persists build reports
type BuildRecorder interface {
	Record(ctx context.Context, report *model.BuildReport) error
}

// Notifier announces finished builds
type Notifier interface {
	Notify(ctx context.Context, report *model.BuildReport) error
}
