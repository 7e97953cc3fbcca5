package store

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chatline/internal/model"
)

// Messages are keyed "msg:{conv}:{%019d nanos}:{uuid}" where conv is the
// sorted pair of user ids. The zero-padded nanosecond stamp makes Badger's
// lexicographic iteration return a conversation in creation order; the uuid
// suffix disambiguates two messages stored in the same nanosecond.

func conversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func conversationPrefix(a, b string) []byte {
	return []byte("msg:" + conversationKey(a, b) + ":")
}

func messageKey(conv string, nanos int64, id string) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conv, nanos, id))
}

// SendMessage durably stores a new message and returns it. The live router
// must only ever be handed a message this method has returned.
func (s *Store) SendMessage(senderID, receiverID, text, image string, nowNanos int64) (model.Message, error) {
	msg := model.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Image:      image,
		CreatedAt:  nowNanos / 1e6,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return model.Message{}, err
	}

	key := messageKey(conversationKey(senderID, receiverID), nowNanos, msg.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the full conversation between a and b in creation
// order.
func (s *Store) ListMessages(a, b string) ([]model.Message, error) {
	msgs := make([]model.Message, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(a, b)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var msg model.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

type readUpdate struct {
	key  []byte
	data []byte
	id   string
}

// collectUnread scans the conversation for unread messages sent by senderID
// and returns their rewritten records. The iterator is closed before the
// caller applies any writes to the transaction.
func collectUnread(txn *badger.Txn, readerID, senderID string, nowMillis int64) ([]readUpdate, error) {
	prefix := conversationPrefix(readerID, senderID)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var updates []readUpdate
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var msg model.Message
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &msg)
		}); err != nil {
			return nil, err
		}
		if msg.SenderID != senderID || msg.Read {
			continue
		}
		msg.Read = true
		msg.ReadAt = nowMillis
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		updates = append(updates, readUpdate{key: item.KeyCopy(nil), data: data, id: msg.ID})
	}
	return updates, nil
}

// MarkMessagesRead durably marks every unread message from senderID to
// readerID as read and returns the affected ids in creation order. Marking an
// already-read conversation again returns an empty batch.
func (s *Store) MarkMessagesRead(readerID, senderID string, nowMillis int64) ([]string, error) {
	var ids []string
	err := s.db.Update(func(txn *badger.Txn) error {
		updates, err := collectUnread(txn, readerID, senderID, nowMillis)
		if err != nil {
			return err
		}
		for _, u := range updates {
			if err := txn.Set(u.key, u.data); err != nil {
				return err
			}
			ids = append(ids, u.id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
