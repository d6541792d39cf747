package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	controller "github.com/ehsan18t/easy-mingw-installer/pkg/controller/http"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
)

type mockBuildUseCase struct {
	mu         sync.Mutex
	requests   []*model.BuildRequest
	report     *model.BuildReport
	runErr     error
	release    chan struct{}
	selections []model.Selection
	previewErr error
	panicValue any
}

func (m *mockBuildUseCase) Run(ctx context.Context, req *model.BuildRequest) (*model.BuildReport, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.release != nil {
		<-m.release
	}
	if m.panicValue != nil {
		panic(m.panicValue)
	}
	if m.runErr != nil {
		return nil, m.runErr
	}
	return m.report, nil
}

func (m *mockBuildUseCase) Preview(ctx context.Context, req *model.BuildRequest) ([]model.Selection, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.selections, m.previewErr
}

func (m *mockBuildUseCase) lastRequest() *model.BuildRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func testRequestFactory(labels []string) (*model.BuildRequest, error) {
	archs := []model.Architecture{
		{Label: "64", AssetPattern: types.MustAssetPattern(`x86_64.*\.7z$`)},
		{Label: "32", AssetPattern: types.MustAssetPattern(`i686.*\.7z$`)},
	}
	if len(labels) > 0 {
		var filtered []model.Architecture
		for _, a := range archs {
			for _, l := range labels {
				if a.Label == l {
					filtered = append(filtered, a)
				}
			}
		}
		if len(filtered) == 0 {
			return nil, goerr.Wrap(types.ErrInvalidArgument, "unknown architecture")
		}
		archs = filtered
	}
	return &model.BuildRequest{
		TitlePattern:  "GCC * (UCRT) - release *",
		Architectures: archs,
		BuildTag:      "2025.01.01",
	}, nil
}

func newTestServer(t *testing.T, uc *mockBuildUseCase, opts ...controller.Option) http.Handler {
	t.Helper()
	opts = append([]controller.Option{controller.WithRequestFactory(testRequestFactory)}, opts...)
	server, err := controller.NewServer(context.Background(), uc, opts...)
	gt.NoError(t, err)
	return server.Handler
}

func serve(h http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func waitJob(t *testing.T, h http.Handler, id string) model.BuildJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w := serve(h, http.MethodGet, "/api/builds/"+id, nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)

		var job model.BuildJob
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&job))
		if job.Status != model.BuildJobRunning {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("build did not finish in time")
	return model.BuildJob{}
}

func TestSelectionEndpoint(t *testing.T) {
	t.Run("returns selections", func(t *testing.T) {
		uc := &mockBuildUseCase{
			selections: []model.Selection{
				{
					Arch:    "64",
					Release: &model.Release{Name: "GCC 15.1.0 r4", TagName: "15.1.0-r4"},
					Asset:   &model.Asset{ID: 7, Name: "winlibs-x86_64.7z"},
				},
			},
		}
		h := newTestServer(t, uc)

		w := serve(h, http.MethodGet, "/api/selection?arch=64", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Contains(`"tag_name":"15.1.0-r4"`)
		gt.String(t, w.Body.String()).Contains(`"name":"winlibs-x86_64.7z"`)

		req := uc.lastRequest()
		gt.NotNil(t, req)
		gt.Number(t, len(req.Architectures)).Equal(1)
		gt.Value(t, req.Architectures[0].Label).Equal("64")
	})

	t.Run("no matching release is 404", func(t *testing.T) {
		uc := &mockBuildUseCase{
			previewErr: goerr.Wrap(types.ErrNoMatchingRelease, "no release"),
		}
		w := serve(newTestServer(t, uc), http.MethodGet, "/api/selection", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusNotFound)
	})

	t.Run("unknown architecture is 400", func(t *testing.T) {
		w := serve(newTestServer(t, &mockBuildUseCase{}), http.MethodGet, "/api/selection?arch=arm64", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("upstream failure is 502", func(t *testing.T) {
		uc := &mockBuildUseCase{previewErr: goerr.New("connection reset")}
		w := serve(newTestServer(t, uc), http.MethodGet, "/api/selection", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusBadGateway)
	})
}

func TestChangelogEndpoint(t *testing.T) {
	h := newTestServer(t, &mockBuildUseCase{})

	t.Run("diffs manifests", func(t *testing.T) {
		body, err := json.Marshal(map[string]string{
			"previous": "- GCC 14.2.0\n- GDB 16.3\n- NASM 2.16.01\n",
			"current":  "- GCC 15.1.0\n- GDB 16.3\n- GNU Make 4.4.1\n",
		})
		gt.NoError(t, err)

		w := serve(h, http.MethodPost, "/api/changelog", body, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)

		var resp struct {
			Entries []struct {
				Name       string `json:"name"`
				Kind       string `json:"kind"`
				OldVersion string `json:"old_version"`
				NewVersion string `json:"new_version"`
			} `json:"entries"`
			Markdown string `json:"markdown"`
		}
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		gt.Number(t, len(resp.Entries)).Equal(3)
		gt.Value(t, resp.Entries[0].Kind).Equal("Added")
		gt.Value(t, resp.Entries[0].Name).Equal("GNU Make")
		gt.Value(t, resp.Entries[1].Kind).Equal("Updated")
		gt.Value(t, resp.Entries[2].Kind).Equal("Removed")
		gt.String(t, resp.Markdown).Contains("- GCC: 14.2.0 -> 15.1.0")
	})

	t.Run("identical manifests give empty list", func(t *testing.T) {
		body := []byte(`{"previous":"- GCC 15.1.0","current":"- GCC 15.1.0"}`)
		w := serve(h, http.MethodPost, "/api/changelog", body, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Contains(`"entries":[]`)
	})

	t.Run("current is required", func(t *testing.T) {
		w := serve(h, http.MethodPost, "/api/changelog", []byte(`{"previous":"- GCC 1.0"}`), nil)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := serve(h, http.MethodPost, "/api/changelog", []byte(`{`), nil)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})
}

func TestBuildEndpoints(t *testing.T) {
	t.Run("runs build asynchronously", func(t *testing.T) {
		uc := &mockBuildUseCase{
			report: &model.BuildReport{
				ID:       "report-1",
				BuildTag: "2025.06.09",
				Results: []model.ArchResult{
					{Arch: "64", Installer: "out/EasyMinGW.exe"},
				},
			},
		}
		h := newTestServer(t, uc)

		body := []byte(`{"build_tag":"2025.06.09","previous_tag":"2025.05.01","archs":["64"]}`)
		w := serve(h, http.MethodPost, "/api/builds", body, nil)
		gt.Value(t, w.Code).Equal(http.StatusAccepted)

		var created model.BuildJob
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		gt.Value(t, created.Status).Equal(model.BuildJobRunning)
		gt.Value(t, created.ID).NotEqual("")

		job := waitJob(t, h, created.ID)
		gt.Value(t, job.Status).Equal(model.BuildJobSucceeded)
		gt.NotNil(t, job.Report)
		gt.Value(t, job.Report.BuildTag).Equal("2025.06.09")

		req := uc.lastRequest()
		gt.Value(t, req.BuildTag).Equal("2025.06.09")
		gt.Value(t, req.PreviousTag).Equal("2025.05.01")
		gt.Number(t, len(req.Architectures)).Equal(1)

		w = serve(h, http.MethodGet, "/api/builds", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Contains(created.ID)
	})

	t.Run("failed architecture marks job failed", func(t *testing.T) {
		uc := &mockBuildUseCase{
			report: &model.BuildReport{
				Results: []model.ArchResult{{Arch: "32", Error: "no matching asset"}},
			},
		}
		h := newTestServer(t, uc)

		w := serve(h, http.MethodPost, "/api/builds", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusAccepted)

		var created model.BuildJob
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		job := waitJob(t, h, created.ID)
		gt.Value(t, job.Status).Equal(model.BuildJobFailed)
		gt.Value(t, job.Error).Equal("some architectures failed")

		// Falls back to the request factory tag
		gt.Value(t, uc.lastRequest().BuildTag).Equal("2025.01.01")
	})

	t.Run("run error marks job failed", func(t *testing.T) {
		uc := &mockBuildUseCase{runErr: goerr.New("no matching release")}
		h := newTestServer(t, uc)

		w := serve(h, http.MethodPost, "/api/builds", []byte(`{}`), nil)
		var created model.BuildJob
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&created))

		job := waitJob(t, h, created.ID)
		gt.Value(t, job.Status).Equal(model.BuildJobFailed)
		gt.String(t, job.Error).Contains("no matching release")
		gt.Value(t, job.Report).Nil()
	})

	t.Run("rejects concurrent build", func(t *testing.T) {
		uc := &mockBuildUseCase{
			report:  &model.BuildReport{},
			release: make(chan struct{}),
		}
		h := newTestServer(t, uc)

		w := serve(h, http.MethodPost, "/api/builds", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusAccepted)
		var created model.BuildJob
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&created))

		w = serve(h, http.MethodPost, "/api/builds", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusConflict)

		close(uc.release)
		waitJob(t, h, created.ID)

		w = serve(h, http.MethodPost, "/api/builds", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusAccepted)
	})

	t.Run("panicking build releases the slot", func(t *testing.T) {
		uc := &mockBuildUseCase{panicValue: "iscc crashed"}
		h := newTestServer(t, uc)

		w := serve(h, http.MethodPost, "/api/builds", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusAccepted)
		var created model.BuildJob
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&created))

		job := waitJob(t, h, created.ID)
		gt.Value(t, job.Status).Equal(model.BuildJobFailed)
		gt.String(t, job.Error).Contains("build panicked")
		gt.NotNil(t, job.FinishedAt)

		uc.panicValue = nil
		uc.report = &model.BuildReport{}
		w = serve(h, http.MethodPost, "/api/builds", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusAccepted)
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		gt.Value(t, waitJob(t, h, created.ID).Status).Equal(model.BuildJobSucceeded)
	})

	t.Run("unknown build is 404", func(t *testing.T) {
		w := serve(newTestServer(t, &mockBuildUseCase{}), http.MethodGet, "/api/builds/missing", nil, nil)
		gt.Value(t, w.Code).Equal(http.StatusNotFound)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := serve(newTestServer(t, &mockBuildUseCase{}), http.MethodPost, "/api/builds", []byte(`{`), nil)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})
}

func TestBuildTriggerSignature(t *testing.T) {
	const secret = "test-secret"
	body := []byte(`{"build_tag":"2025.06.09"}`)

	testCases := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "valid signature", header: sign(secret, body), wantCode: http.StatusAccepted},
		{name: "valid signature without prefix", header: strings.TrimPrefix(sign(secret, body), "sha256="), wantCode: http.StatusAccepted},
		{name: "wrong secret", header: sign("other", body), wantCode: http.StatusUnauthorized},
		{name: "missing signature", header: "", wantCode: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &mockBuildUseCase{report: &model.BuildReport{}}
			h := newTestServer(t, uc, controller.WithTriggerSecret(secret))

			headers := map[string]string{}
			if tc.header != "" {
				headers["X-Hub-Signature-256"] = tc.header
			}
			w := serve(h, http.MethodPost, "/api/builds", body, headers)
			gt.Value(t, w.Code).Equal(tc.wantCode)

			if w.Code == http.StatusAccepted {
				var created model.BuildJob
				gt.NoError(t, json.NewDecoder(w.Body).Decode(&created))
				waitJob(t, h, created.ID)
			}
		})
	}
}

func TestBuildWithoutRequestFactory(t *testing.T) {
	server, err := controller.NewServer(context.Background(), &mockBuildUseCase{})
	gt.NoError(t, err)

	w := serve(server.Handler, http.MethodPost, "/api/builds", nil, nil)
	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
}
