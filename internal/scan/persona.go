package scan

// Persona is the tone/voice profile used when phrasing findings. It is a
// pure function of severity: no identity, recomputed per use.
type Persona struct {
	Tone       string
	PhraseBank []string
	Intensity  int // 1..3
}

var personas = map[Severity]Persona{
	SeverityMinor: {
		Tone:      "wry",
		Intensity: 1,
		PhraseBank: []string{
			"Tsk. A small blemish.",
			"Barely worth a sigh, but here we are.",
			"A cosmetic sin. Fixable before anyone notices.",
			"Minor, like a pebble in the shoe.",
		},
	},
	SeverityModerate: {
		Tone:      "exasperated",
		Intensity: 2,
		PhraseBank: []string{
			"This again. Really.",
			"Someone was in a hurry here.",
			"The code works, which is the most damning part.",
			"A shortcut that will collect interest.",
		},
	},
	SeverityCritical: {
		Tone:      "wrathful",
		Intensity: 3,
		PhraseBank: []string{
			"Burn it. Start over.",
			"This line has doomed better codebases than yours.",
			"A curse upon whoever merges this.",
			"Production will remember this betrayal.",
		},
	},
}

// SelectPersona maps a severity to its persona. Unrecognized severities get
// the moderate persona.
func SelectPersona(s Severity) Persona {
	if p, ok := personas[s]; ok {
		return p
	}
	return personas[SeverityModerate]
}

// Phrase picks one entry from the persona's phrase bank using the supplied
// random source, the only place randomness enters the pipeline. rng receives
// the bank size and must return an index in [0, n).
func (p Persona) Phrase(rng func(n int) int) string {
	if len(p.PhraseBank) == 0 {
		return ""
	}
	if rng == nil {
		return p.PhraseBank[0]
	}
	i := rng(len(p.PhraseBank))
	if i < 0 || i >= len(p.PhraseBank) {
		i = 0
	}
	return p.PhraseBank[i]
}
