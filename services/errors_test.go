package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrInvalidQuest, KindValidation},
		{ErrInvalidDrawType, KindValidation},
		{ErrInvalidPoints, KindValidation},
		{ErrInvalidScope, KindValidation},
		{ErrUserNotFound, KindNotFound},
		{ErrCardNotFound, KindNotFound},
		{ErrCourseNotFound, KindNotFound},
		{ErrChapterNotFound, KindNotFound},
		{ErrBadgeNotFound, KindNotFound},
		{ErrAlreadySignedIn, KindConflict},
		{ErrQuestClaimed, KindConflict},
		{ErrNotCompleted, KindConflict},
		{ErrInsufficientFunds, KindConflict},
		{ErrNoCardAvailable, KindInternal},
		{errors.New("connection reset"), KindInternal},
		{fmt.Errorf("claim: %w", ErrAlreadySignedIn), KindConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), tc.err.Error())
	}
}
