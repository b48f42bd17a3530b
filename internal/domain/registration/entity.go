package registration

import (
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NoHandle is stored when the registrant has no public username.
const NoHandle = "Не указан"

// TimestampLayout is the layout of Submission.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// DayLayout is the prefix of TimestampLayout used for "today" counts.
const DayLayout = "2006-01-02"

// Registrant identifies a chat participant.
type Registrant struct {
	// ID - стабильный идентификатор пользователя в транспорте (ключ сессии).
	ID string

	// Username без "@", может быть пустым.
	Username string

	// FirstName используется только в приветствии.
	FirstName string
}

// NewRegistrant builds a Registrant from a transport user id.
func NewRegistrant(userID int64, username, firstName string) Registrant {
	return Registrant{
		ID:        strconv.FormatInt(userID, 10),
		Username:  strings.TrimPrefix(username, "@"),
		FirstName: firstName,
	}
}

// Handle returns the contact reference stored with a submission.
func (r Registrant) Handle() string {
	if r.Username == "" {
		return NoHandle
	}
	return "@" + r.Username
}

// Participation - участвовал ли заявитель в проекте раньше.
type Participation bool

// String renders the flag the way it is stored in the applications table.
func (p Participation) String() string {
	if p {
		return "Да"
	}
	return "Нет"
}

// Document - ссылка на загруженный в транспорт файл.
type Document struct {
	FileID    string
	FileName  string
	Extension string
}

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT
// ══════════════════════════════════════════════════════════════════════════════

// Draft is the in-progress application of one registrant. It lives only in
// the session store and is never persisted unless confirmed.
type Draft struct {
	Registrant   Registrant
	ChatID       int64
	FullName     string
	Faculty      string
	Participated Participation
	Phone        string
	City         string
	Document     Document
	StartedAt    time.Time
}

// NewDraft creates an empty draft for registrant.
func NewDraft(r Registrant, chatID int64, now time.Time) Draft {
	return Draft{Registrant: r, ChatID: chatID, StartedAt: now}
}

// Validate checks that every field required for a commit is present.
func (d Draft) Validate(c *Catalog) error {
	switch {
	case strings.TrimSpace(d.FullName) == "":
		return ErrEmptyFullName
	case !c.HasFaculty(d.Faculty):
		return ErrUnknownFaculty
	case strings.TrimSpace(d.Phone) == "":
		return ErrEmptyPhone
	case strings.TrimSpace(d.City) == "":
		return ErrEmptyCity
	case d.Document.FileID == "":
		return ErrNoDocument
	}
	if _, err := c.CheckExtension(d.Document.FileName); err != nil {
		return err
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// Submission is one row of the applications table.
type Submission struct {
	ID           int64
	Timestamp    string
	FullName     string
	Faculty      string
	Participated string
	Handle       string
	Phone        string
	City         string
	FileName     string
	FileType     string
}

// NewSubmission flattens a confirmed draft. at is formatted in its own location.
func NewSubmission(d Draft, storedName string, at time.Time) Submission {
	return Submission{
		Timestamp:    at.Format(TimestampLayout),
		FullName:     d.FullName,
		Faculty:      d.Faculty,
		Participated: d.Participated.String(),
		Handle:       d.Registrant.Handle(),
		Phone:        d.Phone,
		City:         d.City,
		FileName:     storedName,
		FileType:     d.Document.Extension,
	}
}

// Receipt is returned by a successful commit.
type Receipt struct {
	Submission Submission
	// Path - полный путь сохранённого файла.
	Path string
	// Digest - BLAKE2b-256 содержимого файла в hex.
	Digest string
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// FacultyCount - количество заявок на факультет.
type FacultyCount struct {
	Faculty string
	Count   int
}

// Statistics aggregates the applications table.
type Statistics struct {
	Total     int
	Today     int
	ByFaculty []FacultyCount
}

// IsEmpty reports whether there are no submissions at all.
func (s Statistics) IsEmpty() bool {
	return s.Total == 0
}
