package usecase_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// mockGitHubClient is a mock implementation of GitHubClient
type mockGitHubClient struct {
	releases    []model.Release
	tags        []string
	byTag       map[string]*model.Release
	listErr     error
	tagsErr     error
	getErr      error
	downloadErr []error // consumed one per call, nil entries succeed
	content     map[string]string

	mu            sync.Mutex
	downloadCalls []string
	getCalls      []string
}

func (m *mockGitHubClient) ListReleases(ctx context.Context, owner, repo string) ([]model.Release, error) {
	return m.releases, m.listErr
}

func (m *mockGitHubClient) ListTags(ctx context.Context, owner, repo string) ([]string, error) {
	return m.tags, m.tagsErr
}

func (m *mockGitHubClient) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*model.Release, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, tag)
	m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.byTag[tag], nil
}

func (m *mockGitHubClient) DownloadAsset(ctx context.Context, asset *model.Asset, w io.Writer) (int64, error) {
	m.mu.Lock()
	m.downloadCalls = append(m.downloadCalls, asset.Name)
	var err error
	if len(m.downloadErr) > 0 {
		err = m.downloadErr[0]
		m.downloadErr = m.downloadErr[1:]
	}
	m.mu.Unlock()

	if err != nil {
		_, _ = io.WriteString(w, "partial")
		return 7, err
	}
	n, err := io.WriteString(w, m.content[asset.Name])
	return int64(n), err
}

// mockExtractor writes the files given per archive base name
type mockExtractor struct {
	files map[string]map[string]string
	err   error
}

func (m *mockExtractor) Extract(ctx context.Context, archivePath, destDir string) (*model.ExtractResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	files, ok := m.files[filepath.Base(archivePath)]
	if !ok {
		return nil, errors.New("unknown archive")
	}

	result := &model.ExtractResult{Dir: destDir}
	for name, content := range files {
		p := filepath.Join(destDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, name)
		result.Size += int64(len(content))
	}
	return result, nil
}

// mockCompiler writes an installer named after OutputBaseFilename
type mockCompiler struct {
	err     error
	defines []map[string]string
}

func (m *mockCompiler) Compile(ctx context.Context, script string, defines map[string]string) (*model.CompileResult, error) {
	m.defines = append(m.defines, defines)
	if m.err != nil {
		return &model.CompileResult{ExitCode: 2, Output: "Compile aborted."}, m.err
	}

	out := filepath.Join(defines["OutputDir"], defines["OutputBaseFilename"]+".exe")
	if err := os.WriteFile(out, []byte("MZ"+defines["Arch"]), 0o644); err != nil {
		return nil, err
	}
	return &model.CompileResult{OutputFile: out}, nil
}

type mockHasher struct{}

func (mockHasher) Hash(ctx context.Context, path string) ([]model.Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []model.Digest{{Algorithm: "SHA256", Value: "sha-of-" + string(data)}}, nil
}

type mockStore struct {
	objects []string
}

func (m *mockStore) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	m.objects = append(m.objects, objectName)
	return "gs://bucket/" + objectName, nil
}

type mockRecorder struct {
	reports []*model.BuildReport
	err     error
}

func (m *mockRecorder) Record(ctx context.Context, report *model.BuildReport) error {
	m.reports = append(m.reports, report)
	return m.err
}

func (m *mockRecorder) Notify(ctx context.Context, report *model.BuildReport) error {
	m.reports = append(m.reports, report)
	return m.err
}
