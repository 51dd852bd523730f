package services

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrCardNotFound    = errors.New("card not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrBadgeNotFound   = errors.New("achievement not unlocked or already claimed")

	ErrInvalidQuest    = errors.New("invalid quest id")
	ErrInvalidDrawType = errors.New("invalid draw type")
	ErrInvalidPoints   = errors.New("points must be positive")
	ErrInvalidScope    = errors.New("ranking scope must be daily or weekly")

	ErrAlreadySignedIn   = errors.New("already signed in today")
	ErrQuestClaimed      = errors.New("quest already claimed this week")
	ErrNotCompleted      = errors.New("quest not completed")
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoCardAvailable means the card catalog has no card of the rolled rarity.
	ErrNoCardAvailable = errors.New("no card available for rolled rarity")
)

// Kind groups engine errors by how callers should report them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidQuest), errors.Is(err, ErrInvalidDrawType), errors.Is(err, ErrInvalidPoints),
		errors.Is(err, ErrInvalidScope):
		return KindValidation
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrCardNotFound),
		errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrChapterNotFound),
		errors.Is(err, ErrBadgeNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadySignedIn), errors.Is(err, ErrQuestClaimed),
		errors.Is(err, ErrNotCompleted), errors.Is(err, ErrInsufficientFunds):
		return KindConflict
	default:
		return KindInternal
	}
}
