package predictor

import "fmt"

// ModelLoadError reports that the model artifact could not be loaded. Fatal at startup.
type ModelLoadError struct {
	Kind   string
	Source string // file path or service URL
	Err    error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("load %s model from %s: %v", e.Kind, e.Source, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// InferenceError reports a failed prediction call.
type InferenceError struct {
	Kind string
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s inference: %v", e.Kind, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
