package hub

import (
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Kind names a trigger: a document collection plus the operation on it.
type Kind string

const (
	KindReportCreated       Kind = "report.created"
	KindReviewCreated       Kind = "review.created"
	KindCommentCreated      Kind = "comment.created"
	KindCommentDeleted      Kind = "comment.deleted"
	KindReplyCreated        Kind = "reply.created"
	KindReplyDeleted        Kind = "reply.deleted"
	KindMessageCreated      Kind = "message.created"
	KindNotificationCreated Kind = "notification.created"
	KindBlockCreated        Kind = "block.created"
	KindBlockDeleted        Kind = "block.deleted"
)

// Well-known event params.
const (
	ParamDocumentID = "id"
	ParamChatID     = "chatId"
	ParamCollection = "collection"
	ParamPostID     = "postId"
)

var errNoDocument = errors.New("event carries no document")

// Event is one document create or delete delivered by a Source. ID names the
// delivery, never the document; the document id travels in ParamDocumentID.
// The document keeps the encoding it arrived in until a handler decodes it.
type Event struct {
	ID     string
	Kind   Kind
	Params map[string]string

	decode func(v interface{}) error
}

// Envelope is the JSON wire form of an Event on the Redis trigger channel.
type Envelope struct {
	ID       string            `json:"id"`
	Kind     Kind              `json:"kind"`
	Params   map[string]string `json:"params,omitempty"`
	Document json.RawMessage   `json:"document"`
}

// Event converts the envelope.
func (e Envelope) Event() Event {
	return NewJSONEvent(e.ID, e.Kind, e.Params, e.Document)
}

// NewJSONEvent creates an event whose document is JSON.
func NewJSONEvent(id string, kind Kind, params map[string]string, doc []byte) Event {
	return Event{
		ID:     id,
		Kind:   kind,
		Params: params,
		decode: func(v interface{}) error {
			if len(doc) == 0 {
				return errNoDocument
			}
			return json.Unmarshal(doc, v)
		},
	}
}

// NewBSONEvent creates an event whose document is raw BSON.
func NewBSONEvent(id string, kind Kind, params map[string]string, doc bson.Raw) Event {
	return Event{
		ID:     id,
		Kind:   kind,
		Params: params,
		decode: func(v interface{}) error {
			if len(doc) == 0 {
				return errNoDocument
			}
			return bson.Unmarshal(doc, v)
		},
	}
}

// Decode unmarshals the event document into v.
func (e Event) Decode(v interface{}) error {
	if e.decode == nil {
		return errNoDocument
	}
	return e.decode(v)
}

// Param returns a named param, or "" if absent.
func (e Event) Param(key string) string {
	return e.Params[key]
}

// dedupKey scopes the event id by kind. Events without an id are not deduped.
func (e Event) dedupKey() string {
	if e.ID == "" {
		return ""
	}
	return string(e.Kind) + ":" + e.ID
}
