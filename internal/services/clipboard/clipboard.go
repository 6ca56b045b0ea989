// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Paster reads textual data from the system clipboard.
type Paster interface {
	Paste() (string, error)
}

// Service implements Copier and Paster using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

// Paste returns the current clipboard text.
func (service *Service) Paste() (string, error) {
	return clipboard.ReadAll()
}

var (
	_ Copier = (*Service)(nil)
	_ Paster = (*Service)(nil)
)
