package bot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type BotConfig struct {
	Room string `json:"room,omitempty"`
	// Админы — ники, которым доступны экономические команды.
	Admins []string `json:"admins"`
}

type configStore struct {
	mu   sync.Mutex
	path string
	data BotConfig
}

// UseConfig загружает конфиг (или создаёт пустой) и дальше сохраняет изменения туда же.
func (bot *ChatBot) UseConfig(path string) error {
	cs := newConfigStore(path)
	if err := cs.Load(); err != nil {
		return err
	}
	bot.cfg = cs
	return nil
}

func (cs *configStore) Load() error {
	cs.mu.Lock()
	f := cs.path
	_ = os.MkdirAll(filepath.Dir(f), 0755)
	b, err := os.ReadFile(f)
	if err != nil {
		cs.mu.Unlock()
		if os.IsNotExist(err) {
			return cs.Save() // создаём пустой
		}
		return err
	}
	defer cs.mu.Unlock()
	return json.Unmarshal(b, &cs.data)
}

// Save без пути — no-op (конфиг только в памяти).
func (cs *configStore) Save() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(&cs.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cs.path, b, 0644)
}

func (cs *configStore) isAdmin(name string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return slices.ContainsFunc(cs.data.Admins, func(a string) bool { return strings.EqualFold(a, name) })
}

func (cs *configStore) hasAdmins() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.data.Admins) > 0
}

// addAdmin — false, если уже есть
func (cs *configStore) addAdmin(name string) bool {
	if cs.isAdmin(name) {
		return false
	}
	cs.mu.Lock()
	cs.data.Admins = append(cs.data.Admins, name)
	cs.mu.Unlock()
	return true
}

func (cs *configStore) delAdmin(name string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	n := len(cs.data.Admins)
	cs.data.Admins = slices.DeleteFunc(cs.data.Admins, func(a string) bool { return strings.EqualFold(a, name) })
	return len(cs.data.Admins) != n
}

func (cs *configStore) admins() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return slices.Clone(cs.data.Admins)
}

func newConfigStore(path string) *configStore {
	return &configStore{
		path: path,
		data: BotConfig{Admins: []string{}},
	}
}
