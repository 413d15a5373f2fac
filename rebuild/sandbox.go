package rebuild

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// ErrSandboxNotFound is returned by a SandboxStore when no sandbox is stored
// under a key.
var ErrSandboxNotFound = errors.New("sandbox not found")

// SandboxStore persists sandboxes between steps.
type SandboxStore interface {
	// Load returns the sandbox stored under key or ErrSandboxNotFound.
	Load(ctx context.Context, key string) (*Sandbox, error)

	// Save stores sb under key, replacing any previous sandbox.
	Save(ctx context.Context, key string, sb *Sandbox) error

	// Delete removes the sandbox stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error
}

// RevisionCursor tracks the paging of the revisions of a single object.
// Failed is set once any revision of the object could not be tracked.
type RevisionCursor struct {
	Active         bool  `json:"active"`
	LastRevisionID int64 `json:"last_revision_id"`
	Offset         int   `json:"offset"`
	Failed         bool  `json:"failed,omitempty"`
}

// Sandbox holds the whole state of a rebuild run. It is updated in place by
// every step and can be persisted between steps.
type Sandbox struct {
	RunID uuid.UUID `json:"run_id"`

	// Types to rebuild, in order, and the index of the current one.
	Types     []string `json:"types"`
	TypeIndex int      `json:"type_index"`

	// Started is set once the current type was cleared and counted.
	Started bool `json:"started"`

	// Processed objects of the current type out of a Total frozen when the
	// type was started.
	Processed int `json:"processed"`
	Total     int `json:"total"`

	// LastProcessedID is the id of the last object fully processed;
	// CurrentID the object whose revisions are being paged.
	LastProcessedID graph.ID       `json:"last_processed_id"`
	CurrentID       graph.ID       `json:"current_id"`
	Revision        RevisionCursor `json:"revision"`

	// Results holds a type:id marker per processed object and Failed the
	// markers of objects that could not be tracked.
	Results []string `json:"results"`
	Failed  []string `json:"failed,omitempty"`

	// Finished is the completion of the current type, in [0, 1].
	Finished float64 `json:"finished"`
	Done     bool    `json:"done"`
}

// CurrentType returns the type being rebuilt, or an empty string once the
// run is done.
func (sb *Sandbox) CurrentType() string {
	if sb.TypeIndex >= len(sb.Types) {
		return ""
	}

	return sb.Types[sb.TypeIndex]
}

// Progress returns the completion of the whole run, in [0, 1].
func (sb *Sandbox) Progress() float64 {
	if sb.Done || len(sb.Types) == 0 {
		return 1
	}

	p := (float64(sb.TypeIndex) + sb.Finished) / float64(len(sb.Types))
	if p > 1 {
		p = 1
	}

	return p
}
