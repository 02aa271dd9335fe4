package admin

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mystik-app/backend/internal/models"
)

func TestWriteRegistrationsCSV(t *testing.T) {
	sp, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	r := reg("medium_1", "Maria", "Silva", "maria@example.com", "BR", models.StatusApproved,
		time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC))
	r.Message = `Trabalho com "tarô" há anos`
	r.Experience = "legacy"

	var buf bytes.Buffer
	require.NoError(t, WriteRegistrationsCSV(&buf, []models.GuideRegistration{r}, sp))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"ID","Nome","Sobrenome","Email","País","Telefone","Especialidade","Experiência","Status","Data","Mensagem"`, lines[0])
	assert.Equal(t, `"medium_1","Maria","Silva","maria@example.com","BR","11999999999","Tarô","legacy","Aprovado","01/10/2026 09:30","Trabalho com ""tarô"" há anos"`, lines[1])
}

func TestWriteRegistrationsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRegistrationsCSV(&buf, nil, time.UTC))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestWriteWaitlistCSV(t *testing.T) {
	entries := []models.WaitlistEntry{
		{ID: uuid.New(), Email: "a@b", CreatedAt: time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteWaitlistCSV(&buf, entries, time.UTC))
	assert.Equal(t, "\"Email\",\"Data\"\n\"a@b\",\"02/01/2026 03:04\"\n", buf.String())
}
