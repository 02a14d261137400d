// Package notes is the narrative event sink: foundings, migrations, leadership
// and ritual policy changes are reported through AddNote.
package notes

import (
	"log/slog"
	"sync"
)

// Sink receives short labelled narrative notes.
type Sink interface {
	AddNote(label, message string)
}

// Note is one recorded entry.
type Note struct {
	Turn    int    `json:"turn" db:"turn"`
	Label   string `json:"label" db:"label"`
	Message string `json:"message" db:"message"`
}

// Nop discards every note. Usable headlessly.
type Nop struct{}

func (Nop) AddNote(string, string) {}

// Slog forwards notes to a structured logger.
type Slog struct {
	Logger *slog.Logger
}

func (s Slog) AddNote(label, message string) {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("note", "label", label, "message", message)
}

// Memory buffers notes, stamping each with the current turn.
type Memory struct {
	mu    sync.Mutex
	turn  int
	notes []Note
}

// SetTurn sets the turn stamped onto subsequent notes.
func (m *Memory) SetTurn(turn int) {
	m.mu.Lock()
	m.turn = turn
	m.mu.Unlock()
}

func (m *Memory) AddNote(label, message string) {
	m.mu.Lock()
	m.notes = append(m.notes, Note{Turn: m.turn, Label: label, Message: message})
	m.mu.Unlock()
}

// Drain returns and clears the buffered notes.
func (m *Memory) Drain() []Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.notes
	m.notes = nil
	return out
}

// Len returns the number of buffered notes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

// Multi fans a note out to several sinks.
type Multi []Sink

func (ms Multi) AddNote(label, message string) {
	for _, s := range ms {
		s.AddNote(label, message)
	}
}

// SetTurn forwards the turn to every sink that stamps notes.
func (ms Multi) SetTurn(turn int) {
	for _, s := range ms {
		if ts, ok := s.(interface{ SetTurn(int) }); ok {
			ts.SetTurn(turn)
		}
	}
}
