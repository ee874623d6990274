package auth

import (
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNoCredentials is returned by Load when the store holds no session.
var ErrNoCredentials = errors.New("no stored credentials")

// CredentialStore persists the bearer token together with the serialized
// user profile. The two are always written and cleared as one unit; no other
// component writes to this storage.
type CredentialStore interface {
	// Save stores the token and serialized user profile atomically.
	Save(token string, user []byte) error

	// Load returns the stored token and user profile, or ErrNoCredentials.
	Load() (token string, user []byte, err error)

	// Clear removes both keys. Idempotent.
	Clear() error
}

var (
	bucketCredentials = []byte("credentials")
	keyToken          = []byte("access_token")
	keyUser           = []byte("user")
)

// BoltStore keeps credentials in a local bbolt file so the session survives
// process restarts.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the credential database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init credential store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Save(token string, user []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if err := b.Put(keyToken, []byte(token)); err != nil {
			return err
		}
		return b.Put(keyUser, user)
	})
}

func (s *BoltStore) Load() (string, []byte, error) {
	var token string
	var user []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		t := b.Get(keyToken)
		if len(t) == 0 {
			return ErrNoCredentials
		}
		token = string(t)
		if u := b.Get(keyUser); u != nil {
			user = make([]byte, len(u))
			copy(user, u)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		if err := b.Delete(keyToken); err != nil {
			return err
		}
		return b.Delete(keyUser)
	})
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
