package chat

import "encoding/json"

// Inbound event names.
const (
	EventJoin          = "join"
	EventSendMessage   = "sendMessage"
	EventSendReply     = "sendReplyMessage"
	EventSendAudio     = "sendAudioMessage"
	EventSendFile      = "sendFileMessage"
	EventEditMessage   = "editMessage"
	EventDeleteMessage = "deleteMessage"
	EventAddReaction   = "addReaction"
	EventTyping        = "typing"
	EventStoppedTyping = "stoppedTyping"
)

// Outbound event names.
const (
	EventJoined            = "joined"
	EventMessageHistory    = "messageHistory"
	EventActiveUsers       = "activeUsers"
	EventUserJoined        = "userJoined"
	EventUserLeft          = "userLeft"
	EventNewMessage        = "newMessage"
	EventMessageUpdated    = "messageUpdated"
	EventMessageDeleted    = "messageDeleted"
	EventMessageReaction   = "messageReaction"
	EventUserTyping        = "userTyping"
	EventUserStoppedTyping = "userStoppedTyping"
	EventAck               = "ack"
	EventError             = "error"
)

// Envelope is the wire frame for every event in both directions.
// Ack is a client-chosen correlation id: when non-zero on an inbound
// mutating event, the server answers with an "ack" envelope carrying
// the same id and, on failure, an Error payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   int64           `json:"ack,omitempty"`
	Error *ErrorPayload   `json:"error,omitempty"`
}

// ErrorPayload carries an operation failure back to the originator.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Inbound payload shapes.

type joinPayload struct {
	Username string `json:"username"`
}

type sendMessagePayload struct {
	Content string `json:"content"`
}

type sendReplyPayload struct {
	Content         string `json:"content"`
	ParentMessageID int64  `json:"parentMessageId"`
}

type sendAudioPayload struct {
	AudioURL string  `json:"audioUrl"`
	Duration float64 `json:"duration"`
}

type sendFilePayload struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	IsImage  bool   `json:"isImage"`
	Caption  string `json:"caption"`
}

type editMessagePayload struct {
	MessageID int64  `json:"messageId"`
	Content   string `json:"content"`
}

type deleteMessagePayload struct {
	MessageID int64 `json:"messageId"`
}

type addReactionPayload struct {
	MessageID int64  `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// typingPayload is the broadcast body for userTyping/userStoppedTyping.
type typingPayload struct {
	Username string `json:"username"`
}
