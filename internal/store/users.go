package store

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chatline/internal/model"
)

// Users live under two keys: "user:id:{id}" holds the record and
// "user:email:{email}" maps the lowercased email to the id for login lookups.

func userIDKey(id string) []byte {
	return []byte("user:id:" + id)
}

func userEmailKey(email string) []byte {
	return []byte("user:email:" + email)
}

func (s *Store) CreateUser(fullName, email, passwordHash string, nowMillis int64) (model.User, error) {
	u := model.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    nowMillis,
	}
	data, err := json.Marshal(u)
	if err != nil {
		return model.User{}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userEmailKey(u.Email))
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(userEmailKey(u.Email), []byte(u.ID)); err != nil {
			return err
		}
		return txn.Set(userIDKey(u.ID), data)
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(email string) (model.User, error) {
	var u model.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(strings.ToLower(email)))
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, userIDKey(id), &u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByID(id string) (model.User, error) {
	var u model.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userIDKey(id), &u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateProfilePic(id, profilePic string) (model.User, error) {
	var u model.User
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, userIDKey(id), &u); err != nil {
			return err
		}
		u.ProfilePic = profilePic
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return txn.Set(userIDKey(id), data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ListUsers returns every user except excludeID, sorted by name. This feeds
// the client sidebar.
func (s *Store) ListUsers(excludeID string) ([]model.User, error) {
	var users []model.User
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:id:")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var u model.User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &u)
			}); err != nil {
				return err
			}
			if u.ID == excludeID {
				continue
			}
			users = append(users, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
	return users, nil
}

func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
