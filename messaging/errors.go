package messaging

import (
	"errors"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Errors returned by session operations
var (
	ErrEmptyMessage         = models.ErrEmptyMessage
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrNotFailed            = errors.New("message has not failed")
)
