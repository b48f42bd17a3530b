package export

import (
	"bytes"
	"testing"

	"github.com/alem-hub/applications-bot/internal/domain/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXWriter_Write(t *testing.T) {
	rows := []registration.Submission{
		{ID: 2, Timestamp: "2024-03-05 15:00:00", FullName: "Мария", Faculty: "ФМО", Participated: "Нет",
			Handle: "Не указан", Phone: "+2", City: "Гродно", FileName: "20240305_150000_Мария.pdf", FileType: ".pdf"},
		{ID: 1, Timestamp: "2024-03-05 14:00:00", FullName: "Ivan Petrov", Faculty: "ФПМИ", Participated: "Да",
			Handle: "@ivan", Phone: "+1", City: "Минск", FileName: "20240305_140000_Ivan Petrov.pdf", FileType: ".pdf"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewXLSXWriter().Write(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Headers, got[0])
	assert.Equal(t, "2", got[1][0])
	assert.Equal(t, "Мария", got[1][2])
	assert.Equal(t, "@ivan", got[2][5])
	assert.Equal(t, ".pdf", got[2][9])
}

func TestXLSXWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, NewXLSXWriter().Write(&buf, nil), ErrNoRows)
	assert.Zero(t, buf.Len())
}
