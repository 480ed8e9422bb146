// Package session persists conversation transcripts to the per-user state
// directory and owns the REPL input history file.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/coda/internal/providers"
)

// Session stores one conversation.
type Session struct {
	ID       string              `json:"id"`
	Messages []providers.Message `json:"messages"`
	Created  time.Time           `json:"created"`
	Updated  time.Time           `json:"updated"`

	Model        string `json:"model,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Workspace    string `json:"workspace,omitempty"`
	InputTokens  int64  `json:"inputTokens,omitempty"`
	OutputTokens int64  `json:"outputTokens,omitempty"`
	CompactionCount int `json:"compactionCount,omitempty"`
}

// Manager handles session lifecycle, persistence, and lookup.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	storage  string // "" = in-memory only
}

func NewManager(storage string) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		storage:  storage,
	}
	if storage != "" {
		os.MkdirAll(storage, 0755)
		m.loadAll()
	}
	return m
}

// GetOrCreate returns an existing session or creates a new one.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:       id,
		Messages: []providers.Message{},
		Created:  time.Now(),
		Updated:  time.Now(),
	}
	m.sessions[id] = s
	return s
}

// SetTranscript replaces a session's message history (used after compression).
func (m *Manager) SetTranscript(id string, messages []providers.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}
	s.Messages = make([]providers.Message, len(messages))
	copy(s.Messages, messages)
	s.Updated = time.Now()
}

// Transcript returns a copy of the message history.
func (m *Manager) Transcript(id string) []providers.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	msgs := make([]providers.Message, len(s.Messages))
	copy(msgs, s.Messages)
	return msgs
}

// UpdateMetadata records model/provider/workspace on the session.
func (m *Manager) UpdateMetadata(id, model, provider, workspace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		if model != "" {
			s.Model = model
		}
		if provider != "" {
			s.Provider = provider
		}
		if workspace != "" {
			s.Workspace = workspace
		}
	}
}

// AccumulateTokens adds token counts from a completed run.
func (m *Manager) AccumulateTokens(id string, input, output int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.InputTokens += input
		s.OutputTokens += output
	}
}

// IncrementCompaction bumps the compaction counter.
func (m *Manager) IncrementCompaction(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.CompactionCount++
	}
}

// Save persists a session to disk atomically.
func (m *Manager) Save(id string) error {
	if m.storage == "" {
		return nil
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	snapshot := *s
	snapshot.Messages = make([]providers.Message, len(s.Messages))
	copy(snapshot.Messages, s.Messages)
	m.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	filename := sanitizeFilename(id)
	if filename == "" || !filepath.IsLocal(filename) {
		return os.ErrInvalid
	}
	target := filepath.Join(m.storage, filename+".json")

	tmp, err := os.CreateTemp(m.storage, "session-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return err
	}
	cleanup = false
	return nil
}

// Delete removes a session and its file.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.storage != "" {
		path := filepath.Join(m.storage, sanitizeFilename(id)+".json")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Info is a lightweight session descriptor for listing.
type Info struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"messageCount"`
	Updated      time.Time `json:"updated"`
}

// List returns metadata for all sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Info
	for id, s := range m.sessions {
		out = append(out, Info{ID: id, MessageCount: len(s.Messages), Updated: s.Updated})
	}
	return out
}

func (m *Manager) loadAll() {
	files, err := os.ReadDir(m.storage)
	if err != nil {
		return
	}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.storage, f.Name()))
		if err != nil {
			continue
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		m.sessions[s.ID] = &s
	}
}

func sanitizeFilename(id string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, id)
}
