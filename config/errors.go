package config

import "fmt"

type ErrInvalidProviderLayer struct {
	ProviderLayer string
}

func (e ErrInvalidProviderLayer) Error() string {
	return fmt.Sprintf("config: provider_layer %q must be in the form \"provider.layer\"", e.ProviderLayer)
}

type ErrProviderNameRequired struct {
	Pos int
}

func (e ErrProviderNameRequired) Error() string {
	return fmt.Sprintf("config: provider block %v is missing a name", e.Pos)
}

type ErrProviderTypeRequired struct {
	Name string
}

func (e ErrProviderTypeRequired) Error() string {
	return fmt.Sprintf("config: provider %q is missing a type", e.Name)
}

type ErrProviderNameDuplicate struct {
	Name string
}

func (e ErrProviderNameDuplicate) Error() string {
	return fmt.Sprintf("config: provider name %q is declared more than once", e.Name)
}

type ErrMapNameRequired struct{}

func (e ErrMapNameRequired) Error() string {
	return "config: map is missing a name"
}

type ErrMapNameDuplicate struct {
	Name string
}

func (e ErrMapNameDuplicate) Error() string {
	return fmt.Sprintf("config: map name %q is declared more than once", e.Name)
}

type ErrMapLayerProviderUnknown struct {
	Map      string
	Provider string
}

func (e ErrMapLayerProviderUnknown) Error() string {
	return fmt.Sprintf("config: map %q references undeclared provider %q", e.Map, e.Provider)
}
