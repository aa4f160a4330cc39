package cron

import "context"

// Job is a periodic task run by the cron worker. Run reports how many rows
// it changed.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

// Registry holds the jobs of one cron cycle in the order they were added.
// Names are unique; a second job with a taken name is ignored.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register reports whether job was added.
func (r *Registry) Register(job Job) bool {
	if job == nil {
		return false
	}
	if _, taken := r.names[job.Name()]; taken {
		return false
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
	return true
}

func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}
