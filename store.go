package comply

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path"
	"sync"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"

	"github.com/complyhq/comply/internal/file"
)

// Keys owned by the session core in persistent storage. ClientGUIDKey is
// written elsewhere and only ever read here, to preserve the tenant
// correlation parameter across sign-out redirects.
const (
	TokenKey      = "lambda_token"
	UserInfoKey   = "user_info"
	ClientGUIDKey = "client_guid"
)

// PersistentStore is durable key/value storage that survives process
// restarts.
type PersistentStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// VolatileStore is key/value storage that is wiped in full at session end.
type VolatileStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Clear()
}

type fileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore returns a PersistentStore backed by a single JSON file.
func NewFileStore(filePath string) PersistentStore {
	return &fileStore{filePath: filePath}
}

// NewHomeDirStore returns a PersistentStore backed by a JSON file in an
// application directory under the user's home directory.
func NewHomeDirStore(appDirName string) (PersistentStore, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return nil, errors.Wrap(err, "error locating user's home directory")
	}
	appDir := path.Join(homeDir, appDirName)
	if _, err = os.Stat(appDir); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(
				err,
				"error checking for existence of %s",
				appDir,
			)
		}
		if err = os.MkdirAll(appDir, 0755); err != nil {
			return nil, errors.Wrapf(err, "error creating %s", appDir)
		}
	}
	return NewFileStore(path.Join(appDir, "state")), nil
}

func (f *fileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.read()
	if err != nil {
		return "", false, err
	}
	value, ok := state[key]
	return value, ok, nil
}

func (f *fileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.read()
	if err != nil {
		return err
	}
	state[key] = value
	return f.write(state)
}

func (f *fileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, err := f.read()
	if err != nil {
		return err
	}
	delete(state, key)
	return f.write(state)
}

func (f *fileStore) read() (map[string]string, error) {
	state := map[string]string{}
	if !file.Exists(f.filePath) {
		return state, nil
	}
	stateBytes, err := ioutil.ReadFile(f.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading state file %s", f.filePath)
	}
	if err := json.Unmarshal(stateBytes, &state); err != nil {
		return nil, errors.Wrapf(err, "error parsing state file %s", f.filePath)
	}
	return state, nil
}

func (f *fileStore) write(state map[string]string) error {
	stateBytes, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "error marshaling state")
	}
	if err := ioutil.WriteFile(f.filePath, stateBytes, 0600); err != nil {
		return errors.Wrapf(err, "error writing to %s", f.filePath)
	}
	return nil
}

type memoryStore struct {
	mu    sync.Mutex
	state map[string]string
}

// NewMemoryStore returns a VolatileStore that lives and dies with the
// process.
func NewMemoryStore() VolatileStore {
	return &memoryStore{state: map[string]string{}}
}

func (m *memoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.state[key]
	return value, ok
}

func (m *memoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = value
}

func (m *memoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = map[string]string{}
}
