package features

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerStore persists a cache as one badger key per record under "<kind>/".
// Several kinds may share one *badger.DB.
type BadgerStore[R any] struct {
	db     *badger.DB
	prefix []byte
}

// OpenBadger opens (or creates) a badger database in dir with logging disabled.
func OpenBadger(dir string) (*badger.DB, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return db, nil
}

// NewBadgerStore returns a store for kind backed by db.
func NewBadgerStore[R any](db *badger.DB, kind Kind) *BadgerStore[R] {
	return &BadgerStore[R]{db: db, prefix: []byte(string(kind) + "/")}
}

// Load reads every record under the kind prefix. An empty prefix loads as an
// empty map; badger has no notion of a missing cache.
func (s *BadgerStore[R]) Load(_ context.Context) (map[string]R, error) {
	entries := make(map[string]R)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(s.prefix):])

			var rec R
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decoding record %q: %w", id, err)
			}
			entries[id] = rec
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading badger cache: %w", err)
	}

	return entries, nil
}

// Save brings the kind prefix in line with entries. Only new or changed
// records are written and stale ones deleted. Large change sets are split
// across several transactions when badger reports ErrTxnTooBig, so a failed
// Save may leave part of the change applied; every committed record is whole.
func (s *BadgerStore[R]) Save(_ context.Context, entries map[string]R) error {
	current, err := s.committed()
	if err != nil {
		return fmt.Errorf("saving badger cache: %w", err)
	}

	var ops []badgerOp
	for id, rec := range entries {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("saving badger cache: encoding record %q: %w", id, err)
		}
		if prev, ok := current[id]; ok && bytes.Equal(prev, data) {
			continue
		}
		ops = append(ops, badgerOp{key: s.key(id), value: data})
	}
	for id := range current {
		if _, ok := entries[id]; !ok {
			ops = append(ops, badgerOp{key: s.key(id), delete: true})
		}
	}

	if err := s.apply(ops); err != nil {
		return fmt.Errorf("saving badger cache: %w", err)
	}
	return nil
}

type badgerOp struct {
	key    []byte
	value  []byte
	delete bool
}

// committed returns the raw committed value of every record under the prefix.
func (s *BadgerStore[R]) committed() (map[string][]byte, error) {
	values := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("reading %q: %w", item.Key(), err)
			}
			values[string(item.Key()[len(s.prefix):])] = val
		}
		return nil
	})
	return values, err
}

// apply runs ops in as few transactions as badger allows, committing and
// starting a new one whenever the current one is full.
func (s *BadgerStore[R]) apply(ops []badgerOp) error {
	if len(ops) == 0 {
		return nil
	}

	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()

	for _, op := range ops {
		err := op.run(txn)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return fmt.Errorf("committing batch: %w", err)
			}
			txn = s.db.NewTransaction(true)
			err = op.run(txn)
		}
		if err != nil {
			return fmt.Errorf("writing %q: %w", op.key, err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func (op badgerOp) run(txn *badger.Txn) error {
	if op.delete {
		return txn.Delete(op.key)
	}
	return txn.Set(op.key, op.value)
}

// Restore reloads the committed state, which after a failed Save is the prior
// version plus any batches that did commit.
func (s *BadgerStore[R]) Restore(ctx context.Context) (map[string]R, error) {
	return s.Load(ctx)
}

func (s *BadgerStore[R]) key(id string) []byte {
	return append(append([]byte{}, s.prefix...), id...)
}
