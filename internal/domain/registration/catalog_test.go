package registration

import (
	"errors"
	"testing"
	"time"

	"github.com/alem-hub/applications-bot/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_FacultyAt(t *testing.T) {
	c := MustDefaultCatalog()

	name, err := c.FacultyAt(4)
	require.NoError(t, err)
	assert.Equal(t, "ФПМИ", name)

	_, err = c.FacultyAt(-1)
	assert.ErrorIs(t, err, ErrUnknownFaculty)

	_, err = c.FacultyAt(c.FacultyCount())
	assert.True(t, errors.Is(err, shared.ErrValueOutOfRange))
}

func TestCatalog_CheckExtension(t *testing.T) {
	c := MustDefaultCatalog()

	tests := []struct {
		name    string
		file    string
		wantExt string
		wantErr bool
	}{
		{"lower docx", "letter.docx", ".docx", false},
		{"mixed case pdf", "essay.PDF", ".pdf", false},
		{"photo", "photo.jpg", ".jpg", true},
		{"no extension", "README", "", true},
		{"double extension", "archive.tar.rtf", ".rtf", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := c.CheckExtension(tt.file)
			assert.Equal(t, tt.wantExt, ext)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrExtensionRejected)
				assert.ErrorIs(t, err, shared.ErrInvalidFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	_, err := NewCatalog(nil, DefaultExtensions)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = NewCatalog([]string{"A", "A"}, DefaultExtensions)
	assert.ErrorIs(t, err, ErrDuplicateFaculty)

	_, err = NewCatalog([]string{"../etc"}, DefaultExtensions)
	assert.ErrorIs(t, err, ErrUnknownFaculty)

	_, err = NewCatalog([]string{"A"}, []string{"pdf"})
	assert.ErrorIs(t, err, ErrInvalidExtension)

	c, err := NewCatalog([]string{" A "}, []string{".PDF", ".pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, c.Faculties())
	assert.Equal(t, []string{".pdf"}, c.Extensions())
}

func TestCatalog_FacultiesIsCopy(t *testing.T) {
	c := MustDefaultCatalog()
	fs := c.Faculties()
	fs[0] = "changed"

	name, _ := c.FacultyAt(0)
	assert.Equal(t, "РФиКТ", name)
}

func TestRegistrant_Handle(t *testing.T) {
	assert.Equal(t, "@ivan", NewRegistrant(1, "ivan", "Ivan").Handle())
	assert.Equal(t, "@ivan", NewRegistrant(1, "@ivan", "Ivan").Handle())
	assert.Equal(t, NoHandle, NewRegistrant(1, "", "Ivan").Handle())
	assert.Equal(t, "42", NewRegistrant(42, "", "").ID)
}

func TestNewSubmission(t *testing.T) {
	d := NewDraft(NewRegistrant(7, "ivan", "Ivan"), 7, time.Time{})
	d.FullName = "Ivan Petrov"
	d.Faculty = "ФПМИ"
	d.Participated = false
	d.Phone = "+1000"
	d.City = "Minsk"
	d.Document = Document{FileID: "f1", FileName: "letter.docx", Extension: ".docx"}

	require.NoError(t, d.Validate(MustDefaultCatalog()))

	at := time.Date(2024, 3, 5, 9, 7, 1, 0, time.UTC)
	s := NewSubmission(d, "20240305_090701_Ivan Petrov.docx", at)

	assert.Equal(t, "2024-03-05 09:07:01", s.Timestamp)
	assert.Equal(t, "Нет", s.Participated)
	assert.Equal(t, "@ivan", s.Handle)
	assert.Equal(t, ".docx", s.FileType)
	assert.Equal(t, "ФПМИ", s.Faculty)
}

func TestDraft_Validate(t *testing.T) {
	c := MustDefaultCatalog()
	d := NewDraft(NewRegistrant(1, "", ""), 1, time.Time{})

	assert.ErrorIs(t, d.Validate(c), ErrEmptyFullName)
	d.FullName = "A"
	assert.ErrorIs(t, d.Validate(c), ErrUnknownFaculty)
	d.Faculty = "ФМО"
	assert.ErrorIs(t, d.Validate(c), ErrEmptyPhone)
	d.Phone = "1"
	assert.ErrorIs(t, d.Validate(c), ErrEmptyCity)
	d.City = "X"
	assert.ErrorIs(t, d.Validate(c), ErrNoDocument)
	d.Document = Document{FileID: "id", FileName: "a.jpg"}
	assert.ErrorIs(t, d.Validate(c), ErrExtensionRejected)
}
