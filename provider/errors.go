package provider

import (
	"fmt"
	"strings"
)

type ErrProviderAlreadyExists struct {
	Name string
}

func (e ErrProviderAlreadyExists) Error() string {
	return fmt.Sprintf("provider %q already exists", e.Name)
}

type ErrUnknownProvider struct {
	Name  string
	Known []string
}

func (e ErrUnknownProvider) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("no providers registered, asked for %q", e.Name)
	}
	return fmt.Sprintf("unknown provider %q; registered: %v", e.Name, strings.Join(e.Known, ", "))
}
