package eventstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists the event log in an embedded BadgerDB so it
// survives a server restart, not just a transport reconnect. Keys are
// "event:{session}:{id:016x}" and values are the raw frame bytes,
// mirroring the session-prefixed, zero-padded sequence key layout the
// pack's own BadgerDB-backed journal uses for its write-ahead log.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("eventstore: open badger at %q: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

func eventKey(session string, id uint64) []byte {
	key := make([]byte, 0, len("event:")+len(session)+1+16)
	key = append(key, "event:"...)
	key = append(key, session...)
	key = append(key, ':')
	key = append(key, []byte(fmt.Sprintf("%016x", id))...)
	return key
}

func sessionPrefix(session string) []byte {
	return []byte("event:" + session + ":")
}

func (b *BadgerStore) Append(ctx context.Context, session string, frame []byte) (uint64, error) {
	var id uint64
	err := b.db.Update(func(txn *badger.Txn) error {
		seq, err := b.nextSeq(txn, session)
		if err != nil {
			return err
		}
		id = seq
		return txn.Set(eventKey(session, id), frame)
	})
	if err != nil {
		return 0, fmt.Errorf("eventstore: append: %w", err)
	}
	return id, nil
}

// nextSeq scans backward from the highest possible key under session's
// prefix to find the last assigned id, mirroring the reverse-iterator
// seek the pack's BadgerDB journal uses to recover its sequence counter
// on reopen instead of keeping a separate counter key.
func (b *BadgerStore) nextSeq(txn *badger.Txn, session string) (uint64, error) {
	prefix := sessionPrefix(session)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Reverse = true

	it := txn.NewIterator(opts)
	defer it.Close()

	seekKey := append(append([]byte{}, prefix...), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	it.Seek(seekKey)

	var maxID uint64
	if it.ValidForPrefix(prefix) {
		key := it.Item().Key()
		hexPart := string(key[len(prefix):])
		var parsed uint64
		if _, err := fmt.Sscanf(hexPart, "%016x", &parsed); err == nil {
			maxID = parsed
		}
	}
	return maxID + 1, nil
}

func (b *BadgerStore) Replay(ctx context.Context, session string, afterID uint64, fn func(Event) error) error {
	prefix := sessionPrefix(session)
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.Key()
			hexPart := strings.TrimPrefix(string(key), string(prefix))
			id, err := parseHexID(hexPart)
			if err != nil || id <= afterID {
				continue
			}
			var frame []byte
			if err := item.Value(func(v []byte) error {
				frame = append([]byte(nil), v...)
				return nil
			}); err != nil {
				return fmt.Errorf("eventstore: read value: %w", err)
			}
			if err := fn(Event{ID: id, Session: session, Frame: frame}); err != nil {
				return err
			}
		}
		return nil
	})
}

func parseHexID(s string) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(s, "%016x", &id)
	return id, err
}

func (b *BadgerStore) Purge(ctx context.Context, session string) error {
	prefix := sessionPrefix(session)
	return b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, append([]byte(nil), it.Item().Key()...))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
