package filestore

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/smartsport/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var _ session.Storage = (*Store)(nil)

const (
	formatVersion = 1
	saltSize      = 16
	filePerm      = 0o600
	dirPerm       = 0o700

	// Argon2id parameters.
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var (
	ErrSealMismatch = errors.New("session file sealing does not match configuration")
	ErrCorrupt      = errors.New("session file is corrupt")
)

// document is the on-disk layout.
type document struct {
	Version int               `json:"version"`
	Sealed  bool              `json:"sealed"`
	Salt    string            `json:"salt,omitempty"`
	Values  map[string]string `json:"values"`
}

// Store persists the session as a single JSON document. Writes replace the
// file atomically. With a passphrase every value is sealed with
// XChaCha20-Poly1305 under an Argon2id-derived key.
type Store struct {
	path       string
	passphrase string
	salt       []byte
	aead       cipher.AEAD
	mu         sync.Mutex
}

type Option func(*Store)

// WithPassphrase seals values at rest. An empty passphrase stores plain
// values.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		s.passphrase = passphrase
	}
}

// DefaultPath is the session file under the user's config directory.
func DefaultPath(appName string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate user config dir")
	}
	return filepath.Join(dir, appName, "session.json"), nil
}

// New opens the store at path. The file is created on first write.
func New(path string, options ...Option) (*Store, error) {
	s := &Store{path: path}
	for _, opt := range options {
		opt(s)
	}
	if s.passphrase == "" {
		return s, nil
	}

	var err error
	if s.salt, err = s.existingSalt(); err != nil {
		// The next write replaces the unreadable file under a fresh salt.
		log.Warn().Err(err).Str("path", path).Msg("Session file unreadable, starting a new one")
		s.salt = nil
	}
	if s.salt == nil {
		s.salt = make([]byte, saltSize)
		if _, err := rand.Read(s.salt); err != nil {
			return nil, errors.Wrap(err, "generate salt")
		}
	}

	key := argon2.IDKey([]byte(s.passphrase), s.salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	if s.aead, err = chacha20poly1305.NewX(key); err != nil {
		return nil, errors.Wrap(err, "init cipher")
	}
	return s, nil
}

// existingSalt returns the salt of the file on disk, or nil when there is
// no sealed file yet.
func (s *Store) existingSalt() ([]byte, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.Salt == "" {
		return nil, nil
	}
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil || len(salt) != saltSize {
		return nil, errors.Wrap(ErrCorrupt, "salt")
	}
	return salt, nil
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", false, err
	}
	raw, ok := doc.Values[key]
	if !ok {
		return "", false, nil
	}
	if doc.Sealed != (s.aead != nil) {
		return "", false, ErrSealMismatch
	}
	if s.aead == nil {
		return raw, true, nil
	}
	value, err := s.open(key, raw)
	if err != nil {
		return "", false, errors.Wrapf(err, "open %s", key)
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil || !s.compatible(doc) {
		// An unreadable file is replaced rather than blocking every login.
		doc = s.emptyDocument()
	}

	if s.aead != nil {
		sealed, err := s.seal(key, value)
		if err != nil {
			return errors.Wrapf(err, "seal %s", key)
		}
		value = sealed
	}
	doc.Values[key] = value
	return s.write(doc)
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil || !s.compatible(doc) {
		return s.write(s.emptyDocument())
	}
	if _, ok := doc.Values[key]; !ok {
		return nil
	}
	delete(doc.Values, key)
	return s.write(doc)
}

// compatible reports whether doc was written with this store's sealing
// configuration and salt.
func (s *Store) compatible(doc *document) bool {
	if doc.Sealed != (s.aead != nil) {
		return false
	}
	return s.aead == nil || doc.Salt == base64.StdEncoding.EncodeToString(s.salt)
}

func (s *Store) emptyDocument() *document {
	doc := &document{Version: formatVersion, Values: map[string]string{}}
	if s.aead != nil {
		doc.Sealed = true
		doc.Salt = base64.StdEncoding.EncodeToString(s.salt)
	}
	return doc
}

// read loads the document; a missing file is an empty document.
func (s *Store) read() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.emptyDocument(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	if doc.Version != formatVersion {
		return nil, errors.Wrapf(ErrCorrupt, "unsupported version %d", doc.Version)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return doc, nil
}

// write replaces the file through a temp file in the same directory.
func (s *Store) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session file")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrapf(err, "replace %s", s.path)
	}
	return nil
}

// seal encrypts value bound to its key: base64(nonce || ciphertext).
func (s *Store) seal(key, value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Store) open(key, sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Wrap(ErrCorrupt, "value encoding")
	}
	if len(data) < s.aead.NonceSize() {
		return "", errors.Wrap(ErrCorrupt, "value too short")
	}
	nonce, ciphertext := data[:s.aead.NonceSize()], data[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", errors.Wrap(err, "wrong passphrase or tampered value")
	}
	return string(plain), nil
}
