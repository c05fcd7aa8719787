package models

// A FormatError reports that a mesh file is malformed or uses a layout the
// decoder does not support.
type FormatError string

func (e FormatError) Error() string { return "ply: invalid format: " + string(e) }

// An IOError reports a failure to open or read a mesh file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return "mesh: " + e.Op + ": " + e.Err.Error()
	}
	return "mesh: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }
