// Package source is the input boundary of a scan: the package manifest, the
// per-member XML detail, and the raw content files behind each member.
package source

import (
	"errors"
	"fmt"
)

// ErrDetailNotFound is returned, wrapped with the type and member, when a
// member declared in the manifest has no companion file on disk.
var ErrDetailNotFound = errors.New("detail not found")

// File is one content file of a member, e.g. the body of an Apex class or a
// template inside a component bundle.
type File struct {
	Name string
	Data []byte
}

// Source is what the inventory reads from.
type Source interface {
	Manifest() (Manifest, error)
	Detail(metadataType, member string) (Detail, error)
	Content(metadataType, member string) ([]File, error)
}

func notFound(metadataType, member string) error {
	return fmt.Errorf("%s %s: %w", metadataType, member, ErrDetailNotFound)
}
