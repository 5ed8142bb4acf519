package fem

import "errors"

// ErrNotFound reports that no live entity currently holds the requested tag.
var ErrNotFound = errors.New("tag not found")

// ErrInvalidStartTag reports a rejected start tag. Tags are solver handles
// and must stay positive, so registries refuse to rebase below 1.
var ErrInvalidStartTag = errors.New("invalid start tag")
