package menu

import "errors"

var (
	// ErrInvalidMenu is returned for a menu that cannot be turned into a task.
	ErrInvalidMenu = errors.New("menu: invalid menu")
	// ErrNoFrontend is returned by NewTask when the frontend is nil.
	ErrNoFrontend = errors.New("menu: nil frontend")
	// ErrUnsupportedFormat is returned by LoadFile for an unknown file extension.
	ErrUnsupportedFormat = errors.New("menu: unsupported file format")
)
