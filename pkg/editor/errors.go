package editor

import "errors"

var (
	ErrClosed            = errors.New("editor session is closed")
	ErrPanelClosed       = errors.New("node editor is not open")
	ErrInvalidParameters = errors.New("parameters must be a JSON object")
	ErrUnsaved           = errors.New("workflow has not been saved yet")
	ErrNoDraftStore      = errors.New("no draft store configured")
)
