package rag

import (
	"iter"

	"examenbot/internal/index"
)

// Fixed replies for turns that do not reach the generator.
const (
	OutOfScopeText = "Dit valt niet binnen het bereik van het examenreglement, dus ik kan hier geen antwoord op geven."
	NoIndexText    = "Er zijn nog geen documenten beschikbaar. Vraag een beheerder om het examenreglement te uploaden."
)

// Outcome classifies how a question was handled.
type Outcome string

const (
	// OutcomeAnswered means the generator produced the answer from selected context.
	OutcomeAnswered Outcome = "answered"
	// OutcomeOutOfScope means no chunk was close enough to the question.
	OutcomeOutOfScope Outcome = "out_of_scope"
	// OutcomeNoIndex means no documents have been indexed yet.
	OutcomeNoIndex Outcome = "no_index"
)

// State is a step of the question answering state machine.
type State int

const (
	StateIdle State = iota
	StateEmbeddingQuery
	StateSearching
	StateInsufficientContext
	StateRespondFallback
	StateSufficientContext
	StateComposingPrompt
	StateGenerating
	StateRespondAnswer
)

var stateNames = [...]string{
	StateIdle:                "idle",
	StateEmbeddingQuery:      "embedding_query",
	StateSearching:           "searching",
	StateInsufficientContext: "insufficient_context",
	StateRespondFallback:     "respond_fallback",
	StateSufficientContext:   "sufficient_context",
	StateComposingPrompt:     "composing_prompt",
	StateGenerating:          "generating",
	StateRespondAnswer:       "respond_answer",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Settings are the retrieval parameters. They can be changed while serving.
type Settings struct {
	// K is the number of nearest chunks to retrieve.
	K int `json:"k"`
	// Threshold is the exclusive upper bound on distance for a chunk to count as context.
	Threshold float64 `json:"threshold"`
}

// Answer is the result of a blocking question.
type Answer struct {
	Text    string
	Outcome Outcome
	// Sources are the chunks the answer was grounded on; empty unless answered.
	Sources []index.Hit
}

// Stream is the result of a streamed question. Fragments can be ranged once.
type Stream struct {
	Outcome   Outcome
	Sources   []index.Hit
	Fragments iter.Seq2[string, error]
}
