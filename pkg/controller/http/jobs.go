package http

import (
	"sort"
	"sync"
	"time"

	"github.com/ehsan18t/easy-mingw-installer/pkg/domain/model"
)

// jobStore keeps asynchronous builds in memory. At most one build runs at a
// time because builds share the output directory.
type jobStore struct {
	mu      sync.Mutex
	jobs    map[string]*model.BuildJob
	running string
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*model.BuildJob)}
}

// start registers a running job, false when another job is still running
func (s *jobStore) start(id string, now time.Time) (*model.BuildJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running != "" {
		return nil, false
	}

	job := &model.BuildJob{ID: id, Status: model.BuildJobRunning, CreatedAt: now}
	s.jobs[id] = job
	s.running = id
	return copyJob(job), true
}

func (s *jobStore) finish(id string, report *model.BuildReport, err error, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return
	}
	job.Report = report
	job.FinishedAt = &now
	switch {
	case err != nil:
		job.Status = model.BuildJobFailed
		job.Error = err.Error()
	case report != nil && len(report.Failed()) > 0:
		job.Status = model.BuildJobFailed
		job.Error = "some architectures failed"
	default:
		job.Status = model.BuildJobSucceeded
	}
	if s.running == id {
		s.running = ""
	}
}

func (s *jobStore) get(id string) (*model.BuildJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return copyJob(job), true
}

// list returns all jobs, newest first
func (s *jobStore) list() []*model.BuildJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*model.BuildJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, copyJob(job))
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

func copyJob(job *model.BuildJob) *model.BuildJob {
	c := *job
	return &c
}
