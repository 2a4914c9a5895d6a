package roadmap

import "fmt"

const (
	StageProvider = "provider"
	StageMetadata = "metadata"
	StageRoadmap  = "roadmap"
)

// GenerationError reports which step of generation failed. Provider failures and
// output that does not match the expected schema are both surfaced this way.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("roadmap generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Err: err}
}
