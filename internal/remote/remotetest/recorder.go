// Package remotetest provides an in-memory remote.Executor for tests.
package remotetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/coldstack/privatechain-deploy/internal/remote"
)

// Call is one recorded Run or Upload.
type Call struct {
	Host     string
	Script   string
	Elevated bool
	// Upload calls set Path and Data and leave Script empty.
	Path string
	Data []byte
}

// IsUpload reports whether the call was an Upload
func (c Call) IsUpload() bool {
	return c.Path != ""
}

// Recorder records calls and optionally fails the ones matched by FailOn.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	// FailOn returns a non-nil error to make the call fail. The call is recorded either way.
	FailOn func(c Call) error
}

var _ remote.Executor = (*Recorder)(nil)

// Run implements remote.Executor
func (r *Recorder) Run(_ context.Context, host, script string, elevated bool) error {
	return r.record(Call{Host: host, Script: script, Elevated: elevated})
}

// Upload implements remote.Executor
func (r *Recorder) Upload(_ context.Context, host, remotePath string, data []byte) error {
	return r.record(Call{Host: host, Path: remotePath, Data: append([]byte(nil), data...)})
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	failOn := r.FailOn
	r.mu.Unlock()

	if failOn != nil {
		return failOn(c)
	}
	return nil
}

// Calls returns a copy of all recorded calls
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// HostCalls returns the calls made against host
func (r *Recorder) HostCalls(host string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Host == host {
			out = append(out, c)
		}
	}
	return out
}

// Hosts returns hosts in the order they were first contacted
func (r *Recorder) Hosts() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range r.Calls() {
		if !seen[c.Host] {
			seen[c.Host] = true
			out = append(out, c.Host)
		}
	}
	return out
}

// ScriptsContaining returns the scripts that contain substr
func (r *Recorder) ScriptsContaining(substr string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if strings.Contains(c.Script, substr) {
			out = append(out, c)
		}
	}
	return out
}

// CommandFailure builds the error a failed remote command produces
func CommandFailure(host string, status int) error {
	return &remote.CommandError{Host: host, Command: "bash -e", ExitStatus: status, Err: fmt.Errorf("exit status %d", status)}
}
