package usecase

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/changelog"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/release"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
	"github.com/ehsan18t/easy-mingw-installer/pkg/utils/retry"
)

const (
	// DefaultUpstreamOwner and DefaultUpstreamRepo host the WinLibs releases
	DefaultUpstreamOwner = "brechtsanders"
	DefaultUpstreamRepo  = "winlibs_mingw"

	// DefaultInstallerName prefixes the installer file names
	DefaultInstallerName = "EasyMinGW.Installer"

	// InfoFileName is the build description shipped inside WinLibs archives
	InfoFileName = "version_info.txt"

	// NotesFileName is written to the output directory
	NotesFileName = "release_notes.md"
)

type buildUseCase struct {
	githubClient  interfaces.GitHubClient
	extractor     interfaces.Extractor
	compiler      interfaces.InstallerCompiler
	hasher        interfaces.Hasher
	store         interfaces.ArtifactStore
	recorder      interfaces.BuildRecorder
	notifier      interfaces.Notifier
	upstreamOwner string
	upstreamRepo  string
	policy        retry.Policy
	newID         func() string
	now           func() time.Time
}

// BuildOption configures the build use case
type BuildOption func(*buildUseCase)

// WithArtifactStore uploads installers and release notes after each build
func WithArtifactStore(store interfaces.ArtifactStore) BuildOption {
	return func(uc *buildUseCase) {
		uc.store = store
	}
}

// WithBuildRecorder persists every build report
func WithBuildRecorder(recorder interfaces.BuildRecorder) BuildOption {
	return func(uc *buildUseCase) {
		uc.recorder = recorder
	}
}

// WithNotifier announces every finished build
func WithNotifier(notifier interfaces.Notifier) BuildOption {
	return func(uc *buildUseCase) {
		uc.notifier = notifier
	}
}

// WithUpstream overrides the repository releases are selected from
func WithUpstream(owner, repo string) BuildOption {
	return func(uc *buildUseCase) {
		uc.upstreamOwner = owner
		uc.upstreamRepo = repo
	}
}

// WithDownloadRetry sets the retry policy of asset downloads
func WithDownloadRetry(p retry.Policy) BuildOption {
	return func(uc *buildUseCase) {
		uc.policy = p
	}
}

// WithIDGenerator replaces the build ID generator
func WithIDGenerator(fn func() string) BuildOption {
	return func(uc *buildUseCase) {
		uc.newID = fn
	}
}

// NewBuild creates a new instance of BuildUseCase
func NewBuild(
	githubClient interfaces.GitHubClient,
	extractor interfaces.Extractor,
	compiler interfaces.InstallerCompiler,
	hasher interfaces.Hasher,
	opts ...BuildOption,
) interfaces.BuildUseCase {
	uc := &buildUseCase{
		githubClient:  githubClient,
		extractor:     extractor,
		compiler:      compiler,
		hasher:        hasher,
		upstreamOwner: DefaultUpstreamOwner,
		upstreamRepo:  DefaultUpstreamRepo,
		policy:        retry.Default(),
		newID:         uuid.NewString,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func validateBuildRequest(req *model.BuildRequest) error {
	if req == nil {
		return goerr.Wrap(types.ErrInvalidArgument, "build request is required")
	}
	if req.TitlePattern == "" {
		return goerr.Wrap(types.ErrInvalidArgument, "title pattern is required")
	}
	if len(req.Architectures) == 0 {
		return goerr.Wrap(types.ErrInvalidArgument, "at least one architecture is required")
	}
	for _, arch := range req.Architectures {
		if arch.Label == "" || arch.AssetPattern.IsZero() {
			return goerr.Wrap(types.ErrInvalidArgument, "architecture needs a label and an asset pattern",
				goerr.V("arch", arch.Label))
		}
	}
	return nil
}

// selectRelease lists upstream releases and applies the title pattern
func (uc *buildUseCase) selectRelease(ctx context.Context, req *model.BuildRequest) (*model.Release, error) {
	releases, err := uc.githubClient.ListReleases(ctx, uc.upstreamOwner, uc.upstreamRepo)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list upstream releases")
	}

	rel, err := release.SelectRelease(releases, req.TitlePattern)
	if err != nil {
		return nil, err
	}

	ctxlog.From(ctx).Info("Selected release",
		"name", rel.Name,
		"tag", rel.TagName,
		"published_at", rel.PublishedAt,
	)
	return rel, nil
}

// Preview selects the release and the asset of every architecture without
// downloading anything. Asset selection failures are reported per entry.
func (uc *buildUseCase) Preview(ctx context.Context, req *model.BuildRequest) ([]model.Selection, error) {
	if err := validateBuildRequest(req); err != nil {
		return nil, err
	}

	rel, err := uc.selectRelease(ctx, req)
	if err != nil {
		return nil, err
	}

	selections := make([]model.Selection, 0, len(req.Architectures))
	for _, arch := range req.Architectures {
		sel := model.Selection{Arch: arch.Label, Release: rel}
		asset, err := release.SelectAsset(rel, arch.AssetPattern)
		if err != nil {
			sel.Error = err.Error()
		} else {
			sel.Asset = asset
		}
		selections = append(selections, sel)
	}

	return selections, nil
}

// Run executes the packaging pipeline. Architectures are processed in order;
// a failing architecture is recorded in the report and the next one runs.
// Only request validation and release selection abort the build.
func (uc *buildUseCase) Run(ctx context.Context, req *model.BuildRequest) (*model.BuildReport, error) {
	if err := validateBuildRequest(req); err != nil {
		return nil, err
	}

	report := &model.BuildReport{
		ID:        uc.newID(),
		BuildTag:  req.BuildTag,
		StartedAt: uc.now(),
	}
	logger := ctxlog.From(ctx).With("build_id", report.ID)
	ctx = ctxlog.With(ctx, logger)

	rel, err := uc.selectRelease(ctx, req)
	if err != nil {
		return nil, err
	}
	report.Release = rel.Name
	report.ReleaseTag = rel.TagName
	report.PreviousTag = uc.previousTag(ctx, req)

	workDir, cleanup, err := prepareWorkDir(req)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create output directory", goerr.V("dir", outputDir))
	}

	run := &buildRun{
		uc:          uc,
		req:         req,
		release:     rel,
		workDir:     workDir,
		outputDir:   outputDir,
		previousTag: report.PreviousTag,
	}

	for _, arch := range req.Architectures {
		result := run.buildArch(ctx, arch)
		if result.Error != "" {
			logger.Warn("Architecture failed", "arch", arch.Label, "error", result.Error)
		}
		report.Results = append(report.Results, result)
	}

	if run.notes != "" {
		report.Notes = run.notes
		report.NotesPath = filepath.Join(outputDir, NotesFileName)
		if err := writeFile(report.NotesPath, run.notes); err != nil {
			return nil, err
		}
		uc.upload(ctx, report.NotesPath, path.Join(req.BuildTag, NotesFileName))
	}

	report.FinishedAt = uc.now()
	uc.finish(ctx, report)

	logger.Info("Build finished",
		"release", report.Release,
		"succeeded", len(report.Results)-len(report.Failed()),
		"failed", len(report.Failed()),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// previousTag resolves the comparison baseline of the project releases
func (uc *buildUseCase) previousTag(ctx context.Context, req *model.BuildRequest) string {
	if req.SkipPreviousTag {
		return ""
	}
	if req.PreviousTag != "" {
		return req.PreviousTag
	}
	if req.ProjectOwner == "" || req.ProjectRepo == "" {
		return ""
	}

	tags, err := uc.githubClient.ListTags(ctx, req.ProjectOwner, req.ProjectRepo)
	if err != nil {
		ctxlog.From(ctx).Warn("Could not list project tags, skipping comparison", "error", err)
		return ""
	}

	prev := release.PreviousTag(tags, req.BuildTag)
	ctxlog.From(ctx).Info("Detected previous tag", "tag", prev, "candidates", len(tags))
	return prev
}

func prepareWorkDir(req *model.BuildRequest) (string, func(), error) {
	if req.WorkDir != "" {
		if err := os.MkdirAll(req.WorkDir, 0o755); err != nil {
			return "", nil, goerr.Wrap(err, "failed to create work directory", goerr.V("dir", req.WorkDir))
		}
		return req.WorkDir, func() {}, nil
	}

	dir, err := os.MkdirTemp("", types.ServiceName+"-build-*")
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to create temporary directory")
	}
	if req.KeepWorkDir {
		return dir, func() {}, nil
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func (uc *buildUseCase) upload(ctx context.Context, localPath, objectName string) {
	if uc.store == nil {
		return
	}
	if _, err := uc.store.Upload(ctx, localPath, objectName); err != nil {
		ctxlog.From(ctx).Warn("Failed to upload artifact", "path", localPath, "error", err)
	}
}

// finish hands the report to the optional sinks. Their failures are logged only.
func (uc *buildUseCase) finish(ctx context.Context, report *model.BuildReport) {
	logger := ctxlog.From(ctx)
	if uc.recorder != nil {
		if err := uc.recorder.Record(ctx, report); err != nil {
			logger.Warn("Failed to record build", "error", err)
		}
	}
	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, report); err != nil {
			logger.Warn("Failed to send notification", "error", err)
		}
	}
}

// buildRun carries the state shared by the architectures of one Run
type buildRun struct {
	uc          *buildUseCase
	req         *model.BuildRequest
	release     *model.Release
	workDir     string
	outputDir   string
	previousTag string
	notes       string
}

func (r *buildRun) buildArch(ctx context.Context, arch model.Architecture) model.ArchResult {
	result := model.ArchResult{Arch: arch.Label}
	logger := ctxlog.From(ctx).With("arch", arch.Label)
	ctx = ctxlog.With(ctx, logger)

	asset, err := release.SelectAsset(r.release, arch.AssetPattern)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Asset = asset.Name
	logger.Info("Selected asset", "asset", asset.Name, "size", asset.Size)

	archivePath := filepath.Join(r.workDir, filepath.Base(asset.Name))
	if err := r.download(ctx, asset, archivePath); err != nil {
		result.Error = err.Error()
		return result
	}

	extracted, err := r.uc.extractor.Extract(ctx, archivePath, filepath.Join(r.workDir, "arch-"+arch.Label))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	logger.Info("Extracted archive", "files", len(extracted.Files), "size", extracted.Size)

	if r.notes == "" {
		notes, err := r.renderNotes(ctx, extracted)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		r.notes = notes
	}

	installer, err := r.compile(ctx, arch, extracted)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	digests, err := r.uc.hasher.Hash(ctx, installer)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Installer = installer
	result.Digests = digests
	r.notes = changelog.AppendHashBlock(r.notes, arch.HashHeading(), changelog.FormatDigests(digests))

	r.uc.upload(ctx, installer, path.Join(r.req.BuildTag, filepath.Base(installer)))
	return result
}

// download writes asset to dest, starting over from an empty file on every attempt
func (r *buildRun) download(ctx context.Context, asset *model.Asset, dest string) error {
	return retry.Do(ctx, r.uc.policy, "download "+asset.Name, func(ctx context.Context) error {
		f, err := os.Create(dest)
		if err != nil {
			return retry.Permanent(goerr.Wrap(err, "failed to create download file", goerr.V("path", dest)))
		}
		defer f.Close()

		n, err := r.uc.githubClient.DownloadAsset(ctx, asset, f)
		if err != nil {
			return err
		}
		ctxlog.From(ctx).Info("Downloaded asset", "asset", asset.Name, "bytes", n)
		return nil
	})
}

func (r *buildRun) renderNotes(ctx context.Context, extracted *model.ExtractResult) (string, error) {
	infoPath := findInfoFile(extracted)
	if infoPath == "" {
		return "", goerr.New("build info file not found in archive", goerr.V("file", InfoFileName))
	}

	data, err := os.ReadFile(infoPath)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read build info file", goerr.V("path", infoPath))
	}
	current := changelog.ParseInfoFile(string(data))

	previous, state := fetchBaseline(ctx, r.uc.githubClient, r.req.ProjectOwner, r.req.ProjectRepo, r.previousTag)

	in := model.ReleaseNotesInput{
		Owner:           r.req.ProjectOwner,
		Repo:            r.req.ProjectRepo,
		Current:         current,
		Previous:        previous,
		PreviousState:   state,
		PreviousTag:     r.previousTag,
		CurrentBuildTag: r.req.BuildTag,
		ScriptChanges:   r.req.ScriptChanges,
	}
	warnIncompleteLink(ctx, in)

	return changelog.RenderReleaseNotes(in)
}

// findInfoFile picks the shallowest version_info.txt of an extracted archive
func findInfoFile(extracted *model.ExtractResult) string {
	best := ""
	for _, f := range extracted.Files {
		if !strings.EqualFold(path.Base(f), InfoFileName) {
			continue
		}
		if best == "" || strings.Count(f, "/") < strings.Count(best, "/") {
			best = f
		}
	}
	if best == "" {
		return ""
	}
	return filepath.Join(extracted.Dir, filepath.FromSlash(best))
}

// InstallerBaseName is the installer file name without extension
func InstallerBaseName(name, buildTag string, arch model.Architecture) string {
	if name == "" {
		name = DefaultInstallerName
	}
	parts := []string{name}
	if buildTag != "" {
		parts = append(parts, "v"+buildTag)
	}
	parts = append(parts, strings.ReplaceAll(arch.HashHeading(), " ", "."))
	return strings.Join(parts, ".")
}

func (r *buildRun) compile(ctx context.Context, arch model.Architecture, extracted *model.ExtractResult) (string, error) {
	if r.req.InnoScript == "" {
		return "", goerr.Wrap(types.ErrInvalidArgument, "installer script is not configured")
	}

	sourceDir := extracted.Dir
	if arch.RootDir != "" {
		sourceDir = filepath.Join(extracted.Dir, arch.RootDir)
	}
	outputDir, err := filepath.Abs(r.outputDir)
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve output directory")
	}

	appName := r.req.InstallerName
	if appName == "" {
		appName = DefaultInstallerName
	}
	baseName := InstallerBaseName(appName, r.req.BuildTag, arch)

	compiled, err := r.uc.compiler.Compile(ctx, r.req.InnoScript, map[string]string{
		"MyAppName":          appName,
		"MyAppVersion":       r.req.BuildTag,
		"Arch":               arch.Label,
		"ArchAllowed":        arch.InnoArch,
		"SourceDir":          sourceDir,
		"OutputDir":          outputDir,
		"OutputBaseFilename": baseName,
	})
	if err != nil {
		return "", err
	}

	installer := compiled.OutputFile
	if installer == "" {
		installer = filepath.Join(outputDir, baseName+".exe")
	}
	ctxlog.From(ctx).Info("Installer built", "path", installer, "exit_code", compiled.ExitCode)
	return installer, nil
}
