package api

// OutputPattern matches files emitted by protoc (foo.pb.h, foo.pb.cc,
// foo.pb.go, ...). Only matching files are patched and synchronized.
const OutputPattern = "*.pb.*"

// Action records what the synchronizer did with one generated file.
type Action string

const (
	// ActionCreated: the destination did not exist.
	ActionCreated Action = "created"
	// ActionForced: the destination was overwritten because force was set.
	ActionForced Action = "forced"
	// ActionUpdated: the destination content hash differed.
	ActionUpdated Action = "updated"
	// ActionUnchanged: hashes matched, destination left untouched.
	ActionUnchanged Action = "unchanged"
)

// Written reports whether the action wrote to the destination tree.
func (a Action) Written() bool {
	return a != ActionUnchanged
}

// FileResult is the outcome for one generated file.
type FileResult struct {
	// Name is the basename shared by the staged and destination file.
	Name   string `json:"name"`
	Action Action `json:"action"`
	// SHA256 of the generated content, hex encoded.
	SHA256 string `json:"sha256"`
}

// SyncReport lists every generated file in basename order.
type SyncReport struct {
	Files []FileResult `json:"files"`
}

// Written counts files that were written to the destination.
func (r SyncReport) Written() int {
	n := 0
	for _, f := range r.Files {
		if f.Action.Written() {
			n++
		}
	}
	return n
}

// RunReport summarizes one generate invocation.
type RunReport struct {
	RunID     string     `json:"run_id"`
	Inputs    []string   `json:"inputs"`
	Patched   []string   `json:"patched,omitempty"`
	Formatted []string   `json:"formatted,omitempty"`
	Sync      SyncReport `json:"sync"`
}
