package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// FixedImageName is the single artefact overwritten by every generation when
// NamingFixed is selected.
const FixedImageName = "outfit.png"

// Naming decides the storage key of each generated image.
type Naming interface {
	Next() string
}

// NamingUnique gives each generation its own file so concurrent requests
// never overwrite each other's image.
type NamingUnique struct{}

func (NamingUnique) Next() string {
	return fmt.Sprintf("outfit-%s.png", uuid.NewString())
}

// NamingFixed always returns FixedImageName. Concurrent requests race on the
// same file and the last writer wins.
type NamingFixed struct{}

func (NamingFixed) Next() string {
	return FixedImageName
}

// NamingFor maps a configuration value to a Naming. Unknown values fall back
// to NamingUnique.
func NamingFor(mode string) Naming {
	if mode == "fixed" {
		return NamingFixed{}
	}
	return NamingUnique{}
}
