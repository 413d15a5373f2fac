package extractor

import (
	"strings"

	"github.com/mycok/entityusage/entity"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// RefFromPath resolves canonical object paths of the form /TYPE/ID, with
// any trailing segments (/TYPE/ID/edit) ignored. When types is not nil the
// type segment must name a known object type.
func RefFromPath(path string, types entity.TypeResolver) (graph.EntityRef, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return graph.EntityRef{}, false
	}

	ref := graph.EntityRef{Type: segments[0], ID: graph.ID(segments[1])}
	if types != nil {
		if _, known := types.TypeInfo(ref.Type); !known {
			return graph.EntityRef{}, false
		}
	}

	return ref, true
}
