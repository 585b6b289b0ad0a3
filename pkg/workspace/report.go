package workspace

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Report counts what happened to the input POMs of one run. It is safe
// for concurrent use while the run is in progress.
type Report struct {
	mu sync.Mutex

	// Input is the number of POMs the run was asked to analyze.
	Input int `json:"input" yaml:"input"`
	// Parsed is the number of POMs that produced a model.
	Parsed int `json:"parsed" yaml:"parsed"`
	// Failed is the number of POMs skipped because they could not be read
	// or parsed.
	Failed int `json:"failed" yaml:"failed"`
	// Fallbacks is the number of projects analyzed from their raw model
	// because resolution failed.
	Fallbacks int `json:"fallbacks" yaml:"fallbacks"`

	errs *multierror.Error
}

func (r *Report) fail(err error) {
	r.mu.Lock()
	r.Failed++
	r.errs = multierror.Append(r.errs, err)
	r.mu.Unlock()
}

func (r *Report) fallback(err error) {
	r.mu.Lock()
	r.Fallbacks++
	r.errs = multierror.Append(r.errs, err)
	r.mu.Unlock()
}

func (r *Report) failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Failed
}

func (r *Report) parsed() {
	r.mu.Lock()
	r.Parsed++
	r.mu.Unlock()
}

// Errors returns every per-file failure and resolution fallback of the
// run, or nil when there were none.
func (r *Report) Errors() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs.ErrorOrNil()
}

// Complete reports whether every input POM produced a model.
func (r *Report) Complete() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Failed == 0 && r.Parsed == r.Input
}
