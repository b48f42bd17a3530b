package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/applications-bot/internal/application/conversation"
	"github.com/alem-hub/applications-bot/internal/domain/registration"
)

// DraftStore implements conversation.DraftStore on Redis. Sessions expire
// after TTLSession so abandoned forms do not accumulate.
type DraftStore struct {
	cache *Cache
	ttl   time.Duration
}

var _ conversation.DraftStore = (*DraftStore)(nil)

// NewDraftStore creates a Redis-backed session store.
func NewDraftStore(cache *Cache, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = TTLSession
	}
	return &DraftStore{cache: cache, ttl: ttl}
}

// sessionRecord is the JSON form of a conversation.Session.
type sessionRecord struct {
	State        string    `json:"state"`
	RegistrantID string    `json:"registrant_id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	ChatID       int64     `json:"chat_id"`
	FullName     string    `json:"full_name,omitempty"`
	Faculty      string    `json:"faculty,omitempty"`
	Participated bool      `json:"participated"`
	Phone        string    `json:"phone,omitempty"`
	City         string    `json:"city,omitempty"`
	FileID       string    `json:"file_id,omitempty"`
	FileName     string    `json:"file_name,omitempty"`
	Extension    string    `json:"extension,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}

func encodeSession(s conversation.Session) sessionRecord {
	d := s.Draft
	return sessionRecord{
		State:        s.State.String(),
		RegistrantID: d.Registrant.ID,
		Username:     d.Registrant.Username,
		FirstName:    d.Registrant.FirstName,
		ChatID:       d.ChatID,
		FullName:     d.FullName,
		Faculty:      d.Faculty,
		Participated: bool(d.Participated),
		Phone:        d.Phone,
		City:         d.City,
		FileID:       d.Document.FileID,
		FileName:     d.Document.FileName,
		Extension:    d.Document.Extension,
		StartedAt:    d.StartedAt,
	}
}

func decodeSession(r sessionRecord) (conversation.Session, bool) {
	state, ok := conversation.ParseState(r.State)
	if !ok || !state.IsActive() {
		return conversation.Session{}, false
	}
	return conversation.Session{
		State: state,
		Draft: registration.Draft{
			Registrant: registration.Registrant{
				ID:        r.RegistrantID,
				Username:  r.Username,
				FirstName: r.FirstName,
			},
			ChatID:       r.ChatID,
			FullName:     r.FullName,
			Faculty:      r.Faculty,
			Participated: registration.Participation(r.Participated),
			Phone:        r.Phone,
			City:         r.City,
			Document: registration.Document{
				FileID:    r.FileID,
				FileName:  r.FileName,
				Extension: r.Extension,
			},
			StartedAt: r.StartedAt,
		},
	}, true
}

// Load returns the stored session of a registrant.
func (s *DraftStore) Load(ctx context.Context, registrantID string) (conversation.Session, bool, error) {
	var rec sessionRecord
	err := s.cache.Get(ctx, s.cache.Key(PrefixSession, registrantID), &rec)
	if errors.Is(err, ErrCacheMiss) {
		return conversation.Session{}, false, nil
	}
	if err != nil {
		return conversation.Session{}, false, err
	}
	sess, ok := decodeSession(rec)
	return sess, ok, nil
}

// Save stores a session and refreshes its TTL.
func (s *DraftStore) Save(ctx context.Context, registrantID string, sess conversation.Session) error {
	return s.cache.Set(ctx, s.cache.Key(PrefixSession, registrantID), encodeSession(sess), s.ttl)
}

// Delete removes a session.
func (s *DraftStore) Delete(ctx context.Context, registrantID string) error {
	return s.cache.Delete(ctx, s.cache.Key(PrefixSession, registrantID))
}
