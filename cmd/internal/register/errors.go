package register

import "fmt"

type ErrProviderNotFound struct {
	Provider string
}

func (e ErrProviderNotFound) Error() string {
	return fmt.Sprintf("register: provider %q not found", e.Provider)
}

type ErrProviderLayerNotRegistered struct {
	MapName       string
	ProviderLayer string
	Provider      string
}

func (e ErrProviderLayerNotRegistered) Error() string {
	return fmt.Sprintf("register: map %q references provider layer %q which is not registered with provider %q", e.MapName, e.ProviderLayer, e.Provider)
}

type ErrFetchingLayerInfo struct {
	Provider string
	Err      error
}

func (e ErrFetchingLayerInfo) Error() string {
	return fmt.Sprintf("register: fetching layer info from provider %q: %v", e.Provider, e.Err)
}

func (e ErrFetchingLayerInfo) Unwrap() error { return e.Err }
