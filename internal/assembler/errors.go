package assembler

import (
	"errors"
	"fmt"

	"github.com/valpere/doctran/internal/orchestrator"
)

// Stage names carried by errors and run records.
const (
	StageLoad        = "load"
	StageTitle       = "title"
	StageDescription = "description"
	StageBlocks      = "blocks"
	StagePersist     = "persist"
)

// LoadError means the source document could not be fetched.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// StageError is a failed title or description translation.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("translate %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PersistError means the translated document could not be stored.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// StageOf names the pipeline stage an error came from, or "" when err is
// not a pipeline error.
func StageOf(err error) string {
	var (
		le *LoadError
		se *StageError
		be *orchestrator.BlockError
		pe *PersistError
	)
	switch {
	case errors.As(err, &le):
		return StageLoad
	case errors.As(err, &se):
		return se.Stage
	case errors.As(err, &be):
		return StageBlocks
	case errors.As(err, &pe):
		return StagePersist
	}
	return ""
}
