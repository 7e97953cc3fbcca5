package hub

import (
	"encoding/json"

	"chatline/internal/model"
)

// Router pushes newly persisted messages to the recipient's live connection.
// It reports nothing upward: an offline recipient reads the message on their
// next history fetch, and a write failure mid-push is the same as offline
// since the message is already durable.
type Router struct {
	reg *Registry
}

func NewRouter(reg *Registry) *Router {
	return &Router{reg: reg}
}

// Route delivers msg to its recipient if a live connection exists. Call it
// exactly once per stored message, after the store has committed it.
func (rt *Router) Route(msg model.Message) {
	out, err := json.Marshal(newMessageEvent{Type: EventNewMessage, Message: msg})
	if err != nil {
		return
	}
	rt.reg.Push(msg.ReceiverID, out)
}
