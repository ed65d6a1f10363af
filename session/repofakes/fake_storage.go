package repofakes

import (
	"errors"
	"maps"
	"sync"

	"github.com/jrsteele09/smartsport/session"
)

var _ session.Storage = (*FakeStorage)(nil)

// ErrInjected is returned by operations made to fail with FailSet, FailGet
// or FailDelete.
var ErrInjected = errors.New("injected storage failure")

// FakeStorage is an in-memory Storage with per-key failure injection.
type FakeStorage struct {
	values     map[string]string
	failGet    map[string]bool
	failSet    map[string]bool
	failDelete map[string]bool
	writes     int
	lock       sync.RWMutex
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		values:     make(map[string]string),
		failGet:    make(map[string]bool),
		failSet:    make(map[string]bool),
		failDelete: make(map[string]bool),
	}
}

func (fs *FakeStorage) Get(key string) (string, bool, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.failGet[key] {
		return "", false, ErrInjected
	}
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FakeStorage) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.failSet[key] {
		return ErrInjected
	}
	fs.values[key] = value
	fs.writes++
	return nil
}

func (fs *FakeStorage) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.failDelete[key] {
		return ErrInjected
	}
	delete(fs.values, key)
	fs.writes++
	return nil
}

// FailGet makes Get of key fail until cleared with fail=false.
func (fs *FakeStorage) FailGet(key string, fail bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.failGet[key] = fail
}

func (fs *FakeStorage) FailSet(key string, fail bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.failSet[key] = fail
}

func (fs *FakeStorage) FailDelete(key string, fail bool) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.failDelete[key] = fail
}

// Snapshot returns a copy of every stored key.
func (fs *FakeStorage) Snapshot() map[string]string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return maps.Clone(fs.values)
}

// Writes counts successful Set and Delete calls.
func (fs *FakeStorage) Writes() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.writes
}
