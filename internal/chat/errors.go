package chat

import "errors"

// Operation errors reported back to the originator through the ack
// channel. They are never broadcast to other clients.
var (
	// ErrUnauthenticated: the connection has not completed a join.
	ErrUnauthenticated = errors.New("join the chat first")

	// ErrNotFound: the referenced message (or reply parent) does not exist.
	ErrNotFound = errors.New("message not found")

	// ErrForbidden: edit/delete attempted by someone other than the author.
	ErrForbidden = errors.New("you can only modify your own messages")

	// ErrMessageDeleted: edit attempted on a soft-deleted message.
	// 許可すると編集経由でコンテンツを「復活」できてしまうため拒否する。
	ErrMessageDeleted = errors.New("message has been deleted")
)

// ValidationError marks a missing or empty required field.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }
