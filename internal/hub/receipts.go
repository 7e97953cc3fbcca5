package hub

import "encoding/json"

// Propagator notifies the original sender's live connection when a recipient
// marks their messages read. Receipts only ever go to the sender; the reader
// already knows, and nobody else is party to the conversation.
type Propagator struct {
	reg *Registry
}

func NewPropagator(reg *Registry) *Propagator {
	return &Propagator{reg: reg}
}

// MarkRead pushes a read-receipt event to senderID covering messageIDs, which
// readBy has just marked read. No-op if the sender is offline: read state is
// persisted, so they observe it on their next history fetch. Consumers apply
// receipts idempotently, so a duplicate push is harmless.
func (p *Propagator) MarkRead(readBy, senderID string, messageIDs []string, readAt int64) {
	if len(messageIDs) == 0 {
		return
	}
	out, err := json.Marshal(messagesReadEvent{
		Type:       EventMessagesRead,
		ReadBy:     readBy,
		SenderID:   senderID,
		MessageIDs: messageIDs,
		ReadAt:     readAt,
	})
	if err != nil {
		return
	}
	p.reg.Push(senderID, out)
}
