package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPersona(t *testing.T) {
	assert.Equal(t, 1, SelectPersona(SeverityMinor).Intensity)
	assert.Equal(t, 2, SelectPersona(SeverityModerate).Intensity)
	assert.Equal(t, 3, SelectPersona(SeverityCritical).Intensity)
}

func TestSelectPersona_UnknownDefaultsToModerate(t *testing.T) {
	p := SelectPersona(Severity("apocalyptic"))
	assert.Equal(t, SelectPersona(SeverityModerate), p)
}

func TestPersona_NonEmptyBanks(t *testing.T) {
	for _, s := range []Severity{SeverityMinor, SeverityModerate, SeverityCritical} {
		p := SelectPersona(s)
		assert.NotEmpty(t, p.PhraseBank, "phrase bank for %s", s)
		assert.NotEmpty(t, p.Tone)
	}
}

func TestPersona_PhraseDeterministicWithInjectedSource(t *testing.T) {
	p := SelectPersona(SeverityCritical)
	assert.Equal(t, p.PhraseBank[2], p.Phrase(func(n int) int { return 2 }))
	assert.Equal(t, p.PhraseBank[0], p.Phrase(func(n int) int { return 0 }))
}

func TestPersona_PhraseGuardsBadSource(t *testing.T) {
	p := SelectPersona(SeverityMinor)
	assert.Equal(t, p.PhraseBank[0], p.Phrase(func(n int) int { return -5 }))
	assert.Equal(t, p.PhraseBank[0], p.Phrase(func(n int) int { return n + 10 }))
	assert.Equal(t, p.PhraseBank[0], p.Phrase(nil))
}
