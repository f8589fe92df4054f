package style

import "fmt"

// ErrForwardRef is returned when a layer refs a layer declared after it.
// Only backward references are valid; catching this at compile time beats
// resolving against a half-built index.
type ErrForwardRef struct {
	LayerID string
	Ref     string
}

func (e ErrForwardRef) Error() string {
	return fmt.Sprintf("style: layer %q refs %q which is declared later in the document", e.LayerID, e.Ref)
}

// ErrUnknownRef is returned when a layer refs an ID that does not exist.
type ErrUnknownRef struct {
	LayerID string
	Ref     string
}

func (e ErrUnknownRef) Error() string {
	return fmt.Sprintf("style: layer %q refs unknown layer %q", e.LayerID, e.Ref)
}

// ErrLayer wraps a compile failure with the offending layer's ID.
type ErrLayer struct {
	LayerID string
	Err     error
}

func (e ErrLayer) Error() string {
	return fmt.Sprintf("style: compiling layer %q: %v", e.LayerID, e.Err)
}

func (e ErrLayer) Unwrap() error { return e.Err }
