package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/changelog"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/interfaces"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/types"
	"github.com/ehsan18t/easy-mingw-installer/pkg/utils/async"
)

const (
	// maxBodySize bounds request bodies of the API
	maxBodySize = 1 << 20

	// buildTagLayout names builds triggered without a tag, e.g. "2025.06.09"
	buildTagLayout = "2006.01.02"
)

type apiHandler struct {
	buildUC    interfaces.BuildUseCase
	newRequest RequestFactory
	secret     string
	jobs       *jobStore
}

// statusOf maps pipeline errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNoMatchingRelease), errors.Is(err, types.ErrNoMatchingAsset):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (h *apiHandler) request(labels []string) (*model.BuildRequest, error) {
	if h.newRequest == nil {
		return nil, goerr.Wrap(types.ErrInvalidArgument, "build targets are not configured")
	}
	return h.newRequest(labels)
}

func splitLabels(v string) []string {
	var labels []string
	for _, l := range strings.Split(v, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// handleSelection previews the release and assets of a build
func (h *apiHandler) handleSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := h.request(splitLabels(r.URL.Query().Get("arch")))
	if err != nil {
		writeError(w, err, statusOf(err))
		return
	}

	selections, err := h.buildUC.Preview(ctx, req)
	if err != nil {
		ctxlog.From(ctx).Warn("Selection failed", "error", err)
		writeError(w, err, statusOf(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"selections": selections,
	})
}

type changelogRequest struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

type changelogResponse struct {
	Entries  []model.ChangeEntry `json:"entries"`
	Markdown string              `json:"markdown"`
}

// handleChangelog diffs two manifest texts
func (h *apiHandler) handleChangelog(w http.ResponseWriter, r *http.Request) {
	var body changelogRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&body); err != nil {
		writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Current) == "" {
		writeError(w, goerr.New("current manifest is required"), http.StatusBadRequest)
		return
	}

	var previous *model.Manifest
	if strings.TrimSpace(body.Previous) != "" {
		previous = changelog.ParseManifest(body.Previous)
	}

	entries, err := changelog.ComputeChangelog(previous, changelog.ParseManifest(body.Current))
	if err != nil {
		writeError(w, err, statusOf(err))
		return
	}
	if entries == nil {
		entries = []model.ChangeEntry{}
	}

	writeJSON(w, http.StatusOK, &changelogResponse{
		Entries:  entries,
		Markdown: changelog.RenderChangelog(entries),
	})
}

type buildTrigger struct {
	BuildTag        string   `json:"build_tag"`
	PreviousTag     string   `json:"previous_tag"`
	SkipPreviousTag bool     `json:"skip_previous_tag"`
	Archs           []string `json:"archs"`
}

// handleCreateBuild starts a build in the background
func (h *apiHandler) handleCreateBuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if h.secret != "" && !verifySignature(h.secret, body, r.Header.Get("X-Hub-Signature-256")) {
		logger.Warn("Invalid build trigger signature")
		writeError(w, goerr.New("invalid signature"), http.StatusUnauthorized)
		return
	}

	var trigger buildTrigger
	if len(body) > 0 {
		if err := json.Unmarshal(body, &trigger); err != nil {
			writeError(w, goerr.Wrap(err, "invalid JSON payload"), http.StatusBadRequest)
			return
		}
	}

	req, err := h.request(trigger.Archs)
	if err != nil {
		writeError(w, err, statusOf(err))
		return
	}
	if trigger.BuildTag != "" {
		req.BuildTag = trigger.BuildTag
	}
	if req.BuildTag == "" {
		req.BuildTag = time.Now().UTC().Format(buildTagLayout)
	}
	if trigger.PreviousTag != "" {
		req.PreviousTag = trigger.PreviousTag
	}
	req.SkipPreviousTag = req.SkipPreviousTag || trigger.SkipPreviousTag

	job, ok := h.jobs.start(uuid.NewString(), time.Now())
	if !ok {
		writeError(w, goerr.New("a build is already running"), http.StatusConflict)
		return
	}

	logger.Info("Build triggered", "job_id", job.ID, "build_tag", req.BuildTag)
	async.Dispatch(ctx, func(ctx context.Context) error {
		// The job slot is released even when the build panics; the panic
		// continues to Dispatch for logging.
		defer func() {
			if r := recover(); r != nil {
				h.jobs.finish(job.ID, nil, goerr.New("build panicked", goerr.V("recover", r)), time.Now())
				panic(r)
			}
		}()

		report, err := h.buildUC.Run(ctx, req)
		h.jobs.finish(job.ID, report, err, time.Now())
		return err
	})

	writeJSON(w, http.StatusAccepted, job)
}

func (h *apiHandler) handleGetBuild(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobs.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, goerr.New("build not found"), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *apiHandler) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"builds": h.jobs.list(),
	})
}

// verifySignature checks a GitHub style "sha256=<hex>" HMAC of payload
func verifySignature(secret string, payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	// Calculate HMAC-SHA256
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
