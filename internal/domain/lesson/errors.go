package lesson

import (
	"context"
	"errors"
	"fmt"
)

type Stage string

const (
	StageCompose Stage = "compose"
	StagePersist Stage = "persist"
	StageHandoff Stage = "handoff"
	StageDeliver Stage = "deliver"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindGenerationDegenerate    Kind = "generation_degenerate"
	KindStoreCreationFailed     Kind = "store_creation_failed"
	KindItemInsertFailed        Kind = "item_insert_failed"
	KindHandoffValidationFailed Kind = "handoff_validation_failed"
	KindTransportFailed         Kind = "transport_failed"
	KindCanceled                Kind = "canceled"
)

type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewStageError(stage Stage, kind Kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// KindOf returns the failure kind carried by err. Context errors map to
// KindCanceled; anything else unclassified returns "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *StageError
	if errors.As(err, &se) && se.Kind != "" {
		return se.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
