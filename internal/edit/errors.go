package edit

import "errors"

var (
	// ErrTaskDeletionUnsupported is returned for every task deletion. The
	// planning server cannot delete tasks.
	ErrTaskDeletionUnsupported = errors.New("cannot delete tasks")

	// ErrLinkUpdateUnsupported is returned for every link update. Links are
	// deleted and recreated instead.
	ErrLinkUpdateUnsupported = errors.New("cannot update links")

	// ErrInvalidEdit indicates a payload rejected before submission.
	ErrInvalidEdit = errors.New("invalid edit")
)
