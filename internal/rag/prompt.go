package rag

import (
	"fmt"
	"strings"

	"examenbot/internal/domain"
	"examenbot/internal/llm"
)

// systemTemplate is filled with the context block.
const systemTemplate = `Je bent een behulpzame assistent die alleen vragen beantwoordt over het examenreglement.

Beantwoord de vraag alleen met informatie uit de context hieronder. Staat het antwoord niet in de context, zeg dan dat je het niet weet. Verzin niets.

Noem een artikel alleen als dat artikel letterlijk in de context staat. Verzin nooit een artikelnummer.

GEBRUIK DEZE STRUCTUUR:
1. Begin met een korte vraag die de hoofdvraag herhaalt
2. Schrijf 'Zo werkt het:'
3. Geef 3-5 korte stappen met streepjes (-)
4. Voeg 1-2 tips toe onder 'Tips:'

VOORBEELD ANTWOORD:
Ben je ziek op de dag van je toets?

Zo werkt het:
- Bel de school voor 9 uur
- Vertel dat je ziek bent
- Je krijgt een nieuwe datum voor je toets

Tips:
- Bewaar het nummer van school in je telefoon
- Bel ook je SLB'er even

GEBRUIK DEZE EENVOUDIGE WOORDEN:
- toets (niet: examen, tentamen, assessment)
- SLB'er (niet: mentor, begeleider)
- tijd (niet: termijn, periode)
- formulier (niet: document, aanvraag)
- regels (niet: voorwaarden, eisen)
- antwoord (niet: uitslag, resultaat)

SCHRIJFTIPS:
- Schrijf op B1-niveau, zoals je praat
- Gebruik 'je' en 'jij'
- Maximaal 6 woorden per zin
- Begin elke stap met een werkwoord
- Gebruik actieve zinnen

Context:
%s`

// Prompt is the input for one generation call.
type Prompt struct {
	System string
	User   string
}

// Messages returns the prompt as chat messages.
func (p Prompt) Messages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: p.System},
		{Role: llm.RoleUser, Content: p.User},
	}
}

// ComposePrompt builds the prompt from the selected chunks and the question.
// With annotate set, each chunk is preceded by its source and page.
func ComposePrompt(chunks []domain.TextChunk, question string, annotate bool) Prompt {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if annotate {
			parts = append(parts, fmt.Sprintf("[bron: %s, pagina %d]\n%s", chunk.Source, chunk.Page, chunk.Content))
			continue
		}
		parts = append(parts, chunk.Content)
	}

	sep := " "
	if annotate {
		sep = "\n\n"
	}

	return Prompt{
		System: fmt.Sprintf(systemTemplate, strings.Join(parts, sep)),
		User:   question,
	}
}
