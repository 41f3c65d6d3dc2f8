package transfer

import "github.com/dmitrijs2005/seedpipe/internal/seedbox"

// Artifact is the file picked for upload and the seedbox folder it was
// found in. ContainerID is empty when the file sat in the root folder.
type Artifact struct {
	File        seedbox.File
	ContainerID seedbox.ID
}

// Target is where the artifact landed in storage.
type Target struct {
	FolderID string
	FileID   string
}

// StepResult records a best-effort step.
type StepResult struct {
	Attempted bool
	Err       error
}

func (s StepResult) OK() bool { return s.Attempted && s.Err == nil }

func (s StepResult) outcome() StepOutcome {
	o := StepOutcome{Attempted: s.Attempted, OK: s.OK()}
	if s.Err != nil {
		o.Error = s.Err.Error()
	}
	return o
}

// Result is the structured outcome of one run. Err is nil exactly when the
// run emitted a success event.
type Result struct {
	RunID     string
	Err       error
	Artifact  Artifact
	FileName  string
	Title     string
	Target    Target
	ShareLink string
	Publish   StepResult
	Cleanup   StepResult
}
