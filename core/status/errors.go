package status

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kilianp07/skyops/core/model"
)

// ErrUnsupportedKind is returned for entity kinds that carry no status.
var ErrUnsupportedKind = errors.New("entity kind has no status")

// InvalidStatusError reports a requested status outside the kind's enumeration.
type InvalidStatusError struct {
	Kind    model.Kind
	Status  model.Status
	Allowed []model.Status
}

func (e *InvalidStatusError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("invalid %s status %q: must be one of %s", e.Kind, e.Status, strings.Join(allowed, ", "))
}
