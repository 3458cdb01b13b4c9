package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"deskwarrior/backend/models"
)

// sessionDocumentID: весь документ сессии хранится одной строкой.
const sessionDocumentID = 1

// SessionRow is the gorm model backing the session document: a single row
// holding the whole Document as JSON.
type SessionRow struct {
	ID        uint           `gorm:"primaryKey"`
	Doc       datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (SessionRow) TableName() string { return "session_documents" }

// SessionStore persists the whole session document and serializes every
// load-mutate-save cycle through a single mutex. Without the mutex two
// concurrent completions race on the read-modify-write of the document and
// one user's update is silently lost.
type SessionStore struct {
	mu sync.Mutex
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) (*SessionStore, error) {
	if err := db.AutoMigrate(&SessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate session store: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// load reads the whole document. A missing row is an empty document.
// Caller must hold s.mu.
func (s *SessionStore) load() (*models.Document, error) {
	var row SessionRow
	err := s.db.First(&row, sessionDocumentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session document: %w", err)
	}

	doc := models.NewDocument()
	if err := json.Unmarshal(row.Doc, doc); err != nil {
		return nil, fmt.Errorf("decode session document: %w", err)
	}
	if doc.Users == nil {
		doc.Users = make(map[string]*models.UserRecord)
	}
	if doc.Boards == nil {
		doc.Boards = make(map[string]models.Board)
	}
	return doc, nil
}

// save writes the whole document back. Caller must hold s.mu.
func (s *SessionStore) save(doc *models.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode session document: %w", err)
	}
	row := SessionRow{ID: sessionDocumentID, Doc: datatypes.JSON(raw)}
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("save session document: %w", err)
	}
	return nil
}

// Update runs fn inside the single-writer critical section and persists the
// document only when fn succeeds. When fn fails nothing is written, so
// rejected attempts leave no trace (the fresh copy is discarded).
func (s *SessionStore) Update(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

// View runs fn on a freshly loaded document without persisting anything.
func (s *SessionStore) View(fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}
