package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/inovacc/drivesign/internal/model"
)

const (
	boltBucketAccounts = "accounts" // key: zero-padded position -> Account JSON
	boltBucketMeta     = "meta"     // key: "seed" -> configured tokens
	boltKeySeed        = "seed"
)

// BoltStore keeps accounts in a bbolt file. The configured tokens seed the
// file on first use and again whenever the configured list changes; after
// that the rotated tokens in the file win.
type BoltStore struct {
	db   *bbolt.DB
	seed []string
}

// NewBoltStore opens (or creates) the bbolt file at path.
func NewBoltStore(path string, seed []string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketAccounts)); err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketMeta)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &BoltStore{db: db, seed: seed}, nil
}

func (b *BoltStore) Name() string { return string(model.StateBolt) }

func (b *BoltStore) Load(ctx context.Context) (*State, error) {
	if err := b.reseed(); err != nil {
		return nil, err
	}

	st := &State{}

	err := b.db.View(func(tx *bbolt.Tx) error {
		accounts := tx.Bucket([]byte(boltBucketAccounts))

		// Keys are zero-padded so ForEach walks them in account order.
		return accounts.ForEach(func(k, v []byte) error {
			var a Account

			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("account %s: %w", k, err)
			}

			st.Accounts = append(st.Accounts, a)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if len(st.Accounts) == 0 {
		return nil, ErrNoAccounts
	}

	return st, nil
}

func (b *BoltStore) Save(ctx context.Context, st *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return putAccounts(tx, st.Accounts)
	})
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

// reseed replaces the stored accounts with the configured tokens when the
// configured list differs from the one that seeded the file.
func (b *BoltStore) reseed() error {
	if len(b.seed) == 0 {
		return nil
	}

	want := strings.Join(b.seed, ",")

	return b.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(boltBucketMeta))

		if string(meta.Get([]byte(boltKeySeed))) == want {
			return nil
		}

		if err := putAccounts(tx, FromTokens(b.seed).Accounts); err != nil {
			return err
		}

		return meta.Put([]byte(boltKeySeed), []byte(want))
	})
}

// putAccounts replaces the accounts bucket contents.
func putAccounts(tx *bbolt.Tx, accounts []Account) error {
	if err := tx.DeleteBucket([]byte(boltBucketAccounts)); err != nil {
		return err
	}

	bucket, err := tx.CreateBucket([]byte(boltBucketAccounts))
	if err != nil {
		return err
	}

	for i, a := range accounts {
		data, err := json.Marshal(&a)
		if err != nil {
			return err
		}

		if err := bucket.Put(fmt.Appendf(nil, "%06d", i), data); err != nil {
			return err
		}
	}

	return nil
}
