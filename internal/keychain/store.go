package keychain

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"

	"github.com/cryptdoc/cryptdoc/pkg/pem"
	"github.com/cryptdoc/cryptdoc/pkg/provider"
	"github.com/cryptdoc/cryptdoc/pkg/secret"
)

var log *logrus.Logger

const (
	keyPrefix  = "key/"
	pairPrefix = "pair/"
)

// StoreConfig configures the persistent keychain.
type StoreConfig struct {
	Path          string // data directory, created when missing
	MinimumFreeGB int    // free-space threshold, 0 disables the check
	Logger        *logrus.Logger
}

// Store is a badger-backed keychain. Key blocks are persisted in their
// textual rendering keyed by identifier, beside a bidirectional pair
// index. Passphrases are held in memory only. Store implements
// provider.Context, so it can back an interpretation pass directly:
// keys discovered during a walk are persisted as they are found.
type Store struct {
	config StoreConfig
	db     *badger.DB

	mu          sync.Mutex
	passphrases map[string]string

	// OnSecret, when set, receives every decrypted payload discovered
	// during a walk. The receiver takes ownership of the wrapper. The
	// store itself never retains secrets.
	OnSecret func(b *pem.Block, sec *secret.Text)
}

// NewStore opens (or creates) a keychain at the configured path.
func NewStore(config StoreConfig) (*Store, error) {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	log = config.Logger

	if err := config.check(); err != nil {
		return nil, fmt.Errorf("keychain: config: %w", err)
	}

	opts := badger.DefaultOptions(config.Path)
	opts.Logger = nil
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("keychain: open store: %w", err)
	}

	return &Store{
		config:      config,
		db:          db,
		passphrases: map[string]string{},
	}, nil
}

func (sc *StoreConfig) check() error {
	if sc.Path == "" {
		return errors.New("no path provided in configuration")
	}
	if err := os.MkdirAll(sc.Path, 0o700); err != nil {
		return err
	}
	if sc.MinimumFreeGB > 0 {
		usage, err := disk.Usage(sc.Path)
		if err != nil {
			return err
		}
		freeGB := usage.Free / (1024 * 1024 * 1024)
		if freeGB < uint64(sc.MinimumFreeGB) {
			return errors.New("not enough space available on disk")
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddKey persists a key block under its Ident property and records the
// pair mapping in both directions.
func (s *Store) AddKey(b *pem.Block) error {
	id := b.GetString(pem.Ident, "")
	if id == "" {
		return errors.New("keychain: key block has no ident")
	}
	kind := b.Kind()
	if kind != pem.KindPrivateKey && kind != pem.KindPublicKey {
		return fmt.Errorf("keychain: not a key block: %s", kind)
	}

	var counterpart string
	if kind == pem.KindPrivateKey {
		counterpart = b.GetString(pem.PubID, "")
	} else {
		counterpart = b.GetString(pem.PrivID, "")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyPrefix+id), []byte(b.Render())); err != nil {
			return err
		}
		if counterpart == "" {
			return nil
		}
		if err := txn.Set([]byte(pairPrefix+id), []byte(counterpart)); err != nil {
			return err
		}
		return txn.Set([]byte(pairPrefix+counterpart), []byte(id))
	})
}

// loadKey reads and parses a stored key block, nil when unknown.
func (s *Store) loadKey(id string, kind pem.Kind) *pem.Block {
	var rendered []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if err != nil {
			return err
		}
		rendered, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			log.WithField("id", id).Errorf("keychain read: %v", err)
		}
		return nil
	}
	list, err := pem.Parse(string(rendered))
	if err != nil || list.Len() != 1 {
		log.WithField("id", id).Errorf("keychain: stored key unparsable: %v", err)
		return nil
	}
	b := list.Get(0)
	if b.Kind() != kind {
		return nil
	}
	return b
}

// SetPassphrase records the passphrase protecting the key with the given
// identifier. Passphrases never touch the disk.
func (s *Store) SetPassphrase(id, passphrase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passphrases[id] = passphrase
}

// GetPrivateKey implements provider.Context.
func (s *Store) GetPrivateKey(id string) *pem.Block {
	return s.loadKey(id, pem.KindPrivateKey)
}

// GetPublicKey implements provider.Context.
func (s *Store) GetPublicKey(id string) *pem.Block {
	return s.loadKey(id, pem.KindPublicKey)
}

// GetPrivateIDForPublicID implements provider.Context via the pair index.
func (s *Store) GetPrivateIDForPublicID(id string) string {
	var counterpart []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(pairPrefix + id))
		if err != nil {
			return err
		}
		counterpart, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return ""
	}
	return string(counterpart)
}

// GetPassphrase implements provider.Context.
func (s *Store) GetPassphrase(id string, _ *pem.Block) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passphrases[id]
}

// FoundSecret implements provider.Context.
func (s *Store) FoundSecret(b *pem.Block, sec *secret.Text) {
	log.WithField("method", b.GetString(pem.Method, "")).Info("decrypted secret")
	if s.OnSecret != nil {
		s.OnSecret(b, sec)
	}
}

// FoundValidated implements provider.Context.
func (s *Store) FoundValidated(b *pem.Block) {
	log.WithField("method", b.GetString(pem.Method, "")).Info("signature validated")
}

// FoundPublicKey implements provider.Context: discovered keys are
// persisted so later blocks and later runs can resolve them.
func (s *Store) FoundPublicKey(b *pem.Block) {
	if err := s.AddKey(b); err != nil {
		log.Errorf("keychain: store public key: %v", err)
	}
}

// FoundPrivateKey implements provider.Context.
func (s *Store) FoundPrivateKey(b *pem.Block) {
	if err := s.AddKey(b); err != nil {
		log.Errorf("keychain: store private key: %v", err)
	}
}

// FoundHash implements provider.Context.
func (s *Store) FoundHash(b *pem.Block) {
	log.WithField("method", b.GetString(pem.Method, "")).Info("hash block")
}

// ErrorKeyNotFound implements provider.Context.
func (s *Store) ErrorKeyNotFound(b *pem.Block) {
	log.WithField("kind", b.Kind().String()).Warn("key not found")
}

var _ provider.Context = (*Store)(nil)
