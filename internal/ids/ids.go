package ids

import "github.com/segmentio/ksuid"

// New returns a sortable entity id.
func New() string {
	return ksuid.New().String()
}
