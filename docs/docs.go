// Package docs Clinic Messaging API.
//
// Documentation of the secure clinician/patient messaging API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - bearer
//
//    SecurityDefinitions:
//    bearer:
//      type: apiKey
//      name: Authorization
//      in: header
//
// swagger:meta
package docs

import (
	"github.com/linesmerrill/clinic-messaging-api/messaging"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/conversations conversations listConversations
// Lists the viewer's conversations, most recent activity first. The optional
// q parameter filters by counterpart name, specialty or condition.
// responses:
//   200: directoryResponse
//   503: retryableErrorResponse

// The viewer's directory
// swagger:response directoryResponse
type directoryResponseWrapper struct {
	// in:body
	Body models.DirectoryResponse
}

// The conversations could not be loaded. Retrying later may succeed.
// swagger:response retryableErrorResponse
type retryableErrorResponseWrapper struct {
	// in:body
	Body models.RetryableErrorResponse
}

// swagger:route POST /api/v1/conversations/{conversation_id}/open conversations openConversation
// Makes a conversation the active one and marks the counterpart's messages read.
// responses:
//   200: conversationResponse
//   404: errorResponse

// A single conversation
// swagger:response conversationResponse
type conversationResponseWrapper struct {
	// in:body
	Body models.Conversation
}

// swagger:route GET /api/v1/conversations/{conversation_id}/thread conversations conversationThread
// Returns the rendering plan of a conversation: messages with time dividers
// and the unread boundary.
// responses:
//   200: threadResponse
//   404: errorResponse

// swagger:route GET /api/v1/thread conversations activeThread
// Returns the rendering plan of the active conversation, or the empty state.
// responses:
//   200: threadResponse

// A rendered thread
// swagger:response threadResponse
type threadResponseWrapper struct {
	// in:body
	Body messaging.Thread
}

// swagger:route POST /api/v1/conversations/{conversation_id}/messages messages sendMessage
// Sends a message from the viewer. Blank text is ignored.
// responses:
//   201: messageResponse
//   204: description: blank message ignored
//   400: errorResponse
//   404: errorResponse
//   429: description: too many requests

// swagger:parameters sendMessage
type sendMessageParams struct {
	// in:body
	Body models.SendMessageRequest
}

// swagger:route PUT /api/v1/conversations/{conversation_id}/draft messages saveDraft
// Stores the compose text of a conversation.
// responses:
//   204: description: draft stored
//   404: errorResponse

// swagger:parameters saveDraft
type saveDraftParams struct {
	// in:body
	Body models.DraftRequest
}

// swagger:route POST /api/v1/conversations/{conversation_id}/draft/send messages sendDraft
// Sends the stored compose text.
// responses:
//   201: messageResponse
//   204: description: blank draft ignored

// swagger:route POST /api/v1/messages/{message_id}/retry messages retryMessage
// Stores a failed message again.
// responses:
//   202: messageResponse
//   404: errorResponse
//   409: errorResponse

// A single message
// swagger:response messageResponse
type messageResponseWrapper struct {
	// in:body
	Body models.Message
}

// An error
// swagger:response errorResponse
type errorResponseWrapper struct {
	// in:body
	Body models.ErrorMessageResponse
}

// swagger:route GET /ws/messages events messageEvents
// Upgrades to a websocket streaming {event, data} frames: message_created,
// message_status, message_failed and conversation_read. Browsers may pass the
// token in the access_token query parameter.
// responses:
//   101: description: switching protocols
//   401: description: unauthorized

// A pushed event frame
// swagger:model
type eventFrame models.Event
