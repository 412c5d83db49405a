package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExitCommand(t *testing.T) {
	for _, text := range []string{"sair", "SAIR", "Sair", "quero sair agora", "cancelar", "CANCEL"} {
		assert.True(t, isExitCommand(text), "text: %q", text)
	}
	for _, text := range []string{"voltar", "menu", "1", "oi", ""} {
		assert.False(t, isExitCommand(text), "text: %q", text)
	}
}

func TestWantsMenuReturn(t *testing.T) {
	for _, text := range []string{"voltar", "Menu", "agendar", "quero agendar", "inicio", "2"} {
		assert.True(t, wantsMenuReturn(text), "text: %q", text)
	}
	for _, text := range []string{"bom dia", "obrigado", ""} {
		assert.False(t, wantsMenuReturn(text), "text: %q", text)
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, time.September, 1, 14, 30, 0, 0, time.UTC)

	t.Run("hoje and amanhã", func(t *testing.T) {
		date, err := parseDate("hoje", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), date)

		date, err = parseDate("Amanhã", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC), date)

		date, err = parseDate("amanha", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("numeric formats", func(t *testing.T) {
		for _, text := range []string{"25/12/2026", "25-12-2026"} {
			date, err := parseDate(text, now)
			require.NoError(t, err, "text: %q", text)
			assert.Equal(t, time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC), date)
		}

		date, err := parseDate("2/9/2026", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("fake calendar dates rejected", func(t *testing.T) {
		_, err := parseDate("31/02/2026", now)
		assert.ErrorIs(t, err, errDateUnparseable)
	})

	t.Run("past rejected", func(t *testing.T) {
		_, err := parseDate("31/08/2026", now)
		assert.ErrorIs(t, err, errDatePast)
	})

	t.Run("today is not past", func(t *testing.T) {
		_, err := parseDate("01/09/2026", now)
		assert.NoError(t, err)
	})

	t.Run("horizon enforced", func(t *testing.T) {
		_, err := parseDate("30/11/2026", now) // 90 days out, last allowed day
		assert.NoError(t, err)
		_, err = parseDate("01/12/2026", now)
		assert.ErrorIs(t, err, errDateTooFar)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		for _, text := range []string{"", "segunda-feira", "12/25"} {
			_, err := parseDate(text, now)
			assert.ErrorIs(t, err, errDateUnparseable, "text: %q", text)
		}
	})
}

func TestParseTimeToken(t *testing.T) {
	cases := map[string]string{
		"08:00":         "08:00",
		"8:00":          "08:00",
		"8h":            "08:00",
		"14h30":         "14:30",
		"quero às 9:15": "09:15",
		"25:00":         "",
		"12:75":         "",
		"sem horário":   "",
		"":              "",
	}
	for text, want := range cases {
		assert.Equal(t, want, parseTimeToken(text), "text: %q", text)
	}
}

func TestMatchIndex(t *testing.T) {
	assert.Equal(t, 0, matchIndex("1", 3))
	assert.Equal(t, 2, matchIndex(" 3 ", 3))
	assert.Equal(t, -1, matchIndex("0", 3))
	assert.Equal(t, -1, matchIndex("4", 3))
	assert.Equal(t, -1, matchIndex("um", 3))
}

func TestMatchByName(t *testing.T) {
	names := []string{"Dra. Ana Souza", "Dr. Bruno Lima"}

	assert.Equal(t, 0, matchByName("ana", names))
	assert.Equal(t, 1, matchByName("BRUNO", names))
	// Input containing the full name also matches.
	assert.Equal(t, 1, matchByName("quero o dr. bruno lima por favor", []string{"dr. bruno lima"}))
	assert.Equal(t, -1, matchByName("carla", names))
	assert.Equal(t, -1, matchByName("", names))
}

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	instant := time.Date(2026, time.September, 1, 23, 59, 59, 0, loc)
	day := startOfDay(instant)
	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, loc), day)
	assert.Equal(t, loc, day.Location())
}
