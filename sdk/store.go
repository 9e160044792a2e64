package vai

import (
	"encoding/json"
	"sync"

	"github.com/vango-go/vai-studio/pkg/core/types"
)

// Local store keys.
const (
	SearchHistoryKey   = "studio_search_history"
	LastImageKey       = "studio_last_image"
	LastImagePromptKey = "studio_last_image_prompt"
)

// SearchGreeting opens every new search chat.
const SearchGreeting = "Hello! I can search the web for up-to-date information. What would you like to know about current events, news, or trends?"

// KeyValueStore persists string values. internal/localstore.Store
// implements it with a JSON file.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string)}
}

func (m *memoryStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *memoryStore) Set(key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}

// History is the persisted search chat.
type History struct {
	store KeyValueStore
	mu    sync.Mutex
}

// NewHistory returns the chat stored in s.
func NewHistory(s KeyValueStore) *History {
	return &History{store: s}
}

func greeting() []types.Message {
	return []types.Message{{Role: types.RoleModel, Text: SearchGreeting}}
}

// Load returns the stored chat. A missing, empty or corrupt entry reads as
// a fresh chat that holds only the greeting.
func (h *History) Load() []types.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadLocked()
}

func (h *History) loadLocked() []types.Message {
	raw, ok := h.store.Get(SearchHistoryKey)
	if !ok {
		return greeting()
	}
	var msgs []types.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil || len(msgs) == 0 {
		return greeting()
	}
	return msgs
}

// Append adds msgs to the stored chat and returns the new chat.
func (h *History) Append(msgs ...types.Message) ([]types.Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	all := append(h.loadLocked(), msgs...)
	return all, h.saveLocked(all)
}

// Save replaces the stored chat.
func (h *History) Save(msgs []types.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.saveLocked(msgs)
}

func (h *History) saveLocked(msgs []types.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return h.store.Set(SearchHistoryKey, string(data))
}

// Clear deletes the stored chat; the next Load returns the greeting.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Delete(SearchHistoryKey)
}

// LastImage is the most recently generated image and its prompt.
type LastImage struct {
	store KeyValueStore
}

// NewLastImage returns the last image stored in s.
func NewLastImage(s KeyValueStore) *LastImage {
	return &LastImage{store: s}
}

// Load returns the image data URL and prompt. ok is false when no image
// was stored.
func (l *LastImage) Load() (url, prompt string, ok bool) {
	url, ok = l.store.Get(LastImageKey)
	if !ok || url == "" {
		return "", "", false
	}
	prompt, _ = l.store.Get(LastImagePromptKey)
	return url, prompt, true
}

// Save stores the image and prompt.
func (l *LastImage) Save(url, prompt string) error {
	if err := l.store.Set(LastImageKey, url); err != nil {
		return err
	}
	return l.store.Set(LastImagePromptKey, prompt)
}

// Clear removes the stored image.
func (l *LastImage) Clear() error {
	if err := l.store.Delete(LastImageKey); err != nil {
		return err
	}
	return l.store.Delete(LastImagePromptKey)
}
