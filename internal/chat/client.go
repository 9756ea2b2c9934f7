package chat

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Maximum inbound frame size.
	maxFrameSize = 64 * 1024

	// Outbound buffer per client; a client that falls this far behind
	// is considered dead and dropped.
	sendBufferSize = 256
)

// Client is the middleman between one websocket connection and the
// hub. Inbound events for a connection are handled sequentially by
// its read loop; events from different connections interleave freely.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	hub      *Hub
	registry *Registry
	service  *Service

	pingInterval time.Duration
	pongWait     time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded websocket connection.
func NewClient(conn *websocket.Conn, hub *Hub, registry *Registry, service *Service, pingInterval, pongWait time.Duration) *Client {
	return &Client{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		hub:          hub,
		registry:     registry,
		service:      service,
		pingInterval: pingInterval,
		pongWait:     pongWait,
		done:         make(chan struct{}),
	}
}

// Run registers the client with the hub and blocks until the
// connection is gone. Presence cleanup and the leave broadcast happen
// on the way out.
func (c *Client) Run() {
	c.hub.add(c)
	go c.writePump()
	c.readPump()

	c.hub.remove(c)
	c.shutdown()

	// joinを完了していない接続の切断ではブロードキャストしない
	if p, ok := c.registry.Unregister(c.id); ok {
		log.Printf("[ws] 📢 %s left", p.Username)
		c.hub.Broadcast(EventUserLeft, p)
		c.hub.Broadcast(EventActiveUsers, c.registry.Snapshot())
	}
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("[ws] ❌ malformed frame from %s: %v", c.id, err)
			continue
		}
		c.handleEvent(env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// enqueue hands a frame to the write loop without blocking. A full
// buffer means the peer stopped draining; the connection is dropped
// and everyone else is unaffected.
func (c *Client) enqueue(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.shutdown()
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// sendEvent delivers a direct event to this connection only.
func (c *Client) sendEvent(event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("[ws] ❌ failed to marshal %s event: %v", event, err)
		return
	}
	c.enqueue(frame)
}

// ack answers an inbound event's correlation id. Failures reach only
// the originator; they are never broadcast.
func (c *Client) ack(id int64, err error) {
	if id == 0 {
		return
	}
	env := Envelope{Event: EventAck, Ack: id}
	if err != nil {
		env.Error = &ErrorPayload{Message: err.Error()}
	}
	frame, merr := json.Marshal(env)
	if merr != nil {
		return
	}
	c.enqueue(frame)
}

func (c *Client) handleEvent(env Envelope) {
	if env.Event == EventJoin {
		c.handleJoin(env)
		return
	}

	author, ok := c.registry.Get(c.id)
	if !ok {
		// typing系はackを持たないイベントなので黙って無視する
		if env.Event != EventTyping && env.Event != EventStoppedTyping {
			c.ack(env.Ack, ErrUnauthenticated)
		}
		return
	}

	switch env.Event {
	case EventSendMessage:
		var p sendMessagePayload
		c.mutate(env, &p, func() (string, any, error) {
			msg, err := c.service.CreateText(author, p.Content)
			return EventNewMessage, msg, err
		})

	case EventSendReply:
		var p sendReplyPayload
		c.mutate(env, &p, func() (string, any, error) {
			msg, err := c.service.CreateReply(author, p.Content, p.ParentMessageID)
			return EventNewMessage, msg, err
		})

	case EventSendAudio:
		var p sendAudioPayload
		c.mutate(env, &p, func() (string, any, error) {
			msg, err := c.service.CreateAudio(author, p.AudioURL, p.Duration)
			return EventNewMessage, msg, err
		})

	case EventSendFile:
		var p sendFilePayload
		c.mutate(env, &p, func() (string, any, error) {
			msg, err := c.service.CreateFile(author, FileAttachment{
				URL:     p.FileURL,
				Name:    p.FileName,
				Type:    p.FileType,
				Size:    p.FileSize,
				IsImage: p.IsImage,
			}, p.Caption)
			return EventNewMessage, msg, err
		})

	case EventEditMessage:
		var p editMessagePayload
		c.mutate(env, &p, func() (string, any, error) {
			msg, err := c.service.Edit(author, p.MessageID, p.Content)
			return EventMessageUpdated, msg, err
		})

	case EventDeleteMessage:
		var p deleteMessagePayload
		c.mutate(env, &p, func() (string, any, error) {
			msg, err := c.service.Delete(author, p.MessageID)
			return EventMessageDeleted, msg, err
		})

	case EventAddReaction:
		var p addReactionPayload
		c.mutate(env, &p, func() (string, any, error) {
			toggle, err := c.service.ToggleReaction(author, p.MessageID, p.Emoji)
			return EventMessageReaction, toggle, err
		})

	case EventTyping:
		c.hub.BroadcastExcept(c, EventUserTyping, typingPayload{Username: author.Username})

	case EventStoppedTyping:
		c.hub.BroadcastExcept(c, EventUserStoppedTyping, typingPayload{Username: author.Username})

	default:
		log.Printf("[ws] unknown event %q from %s", env.Event, c.id)
	}
}

// mutate decodes the payload, runs the state transition and, on
// success, broadcasts the result to every client (originator
// included). The ack carries the per-operation outcome either way.
func (c *Client) mutate(env Envelope, payload any, op func() (string, any, error)) {
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, payload); err != nil {
			c.ack(env.Ack, ValidationError("invalid payload"))
			return
		}
	}

	event, result, err := op()
	if err != nil {
		log.Printf("[ws] ❌ %s from %s failed: %v", env.Event, c.id, err)
		c.ack(env.Ack, err)
		return
	}

	c.hub.Broadcast(event, result)
	c.ack(env.Ack, nil)
}

func (c *Client) handleJoin(env Envelope) {
	var p joinPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.joinFailed(env.Ack, ValidationError("invalid payload"))
			return
		}
	}

	user, err := c.service.LookupOrCreateUser(p.Username)
	if err != nil {
		c.joinFailed(env.Ack, err)
		return
	}

	// 履歴の取得に失敗した場合はjoin自体を失敗として報告する。
	// 接続は生かしたままなのでクライアントはjoinをやり直せる。
	history, err := c.service.RecentMessages()
	if err != nil {
		log.Printf("[ws] ❌ history load failed for %s: %v", user.Username, err)
		c.joinFailed(env.Ack, errors.New("failed to load message history"))
		return
	}

	participant := c.registry.Register(c.id, user)
	log.Printf("[ws] ✅ %s joined (connection %s)", user.Username, c.id)

	c.sendEvent(EventJoined, user)
	c.sendEvent(EventMessageHistory, history)

	c.hub.Broadcast(EventActiveUsers, c.registry.Snapshot())
	c.hub.Broadcast(EventUserJoined, participant)

	c.ack(env.Ack, nil)
}

// joinFailed reports a join-time failure on both the direct error
// event and the ack channel.
func (c *Client) joinFailed(ackID int64, err error) {
	c.sendEvent(EventError, ErrorPayload{Message: err.Error()})
	c.ack(ackID, err)
}
