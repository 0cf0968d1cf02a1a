package ws

import "github.com/hupe1980/ipcmesh/core"

type frameKind string

const (
	kindCall        frameKind = "call"
	kindReply       frameKind = "reply"
	kindSubscribe   frameKind = "subscribe"
	kindUnsubscribe frameKind = "unsubscribe"
	kindPublish     frameKind = "publish"
	kindEvent       frameKind = "event"
	kindAck         frameKind = "ack"
)

// frame is the JSON envelope of every websocket message. ID correlates a
// call with its reply, a control frame with its ack, and events with the
// subscription they belong to.
type frame struct {
	Kind    frameKind     `json:"kind"`
	ID      string        `json:"id"`
	Topic   string        `json:"topic,omitempty"`
	Request *core.Request `json:"request,omitempty"`
	Reply   *core.Reply   `json:"reply,omitempty"`
	Data    []byte        `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func ack(id string, err error) frame {
	f := frame{Kind: kindAck, ID: id}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}
