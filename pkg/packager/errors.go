package packager

import "errors"

// ErrMissingEntry is returned under FailOnMissing when an inclusion-list entry does not exist.
var ErrMissingEntry = errors.New("inclusion entry does not exist")

// ErrOutputIsDir is returned when the output path names an existing directory.
var ErrOutputIsDir = errors.New("output path is a directory")

// ErrEntryOutsideRoot is returned for inclusion entries that are absolute or climb above the root.
var ErrEntryOutsideRoot = errors.New("inclusion entry is outside the root directory")
