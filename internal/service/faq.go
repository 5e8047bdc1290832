package service

import "strings"

// FAQEntry is a preset question with a static explanation.
type FAQEntry struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var faqEntries = []FAQEntry{
	{
		ID:       "vrijstelling",
		Question: "Hoe kan ik vrijstelling aanvragen?",
		Answer: "Als je een vak al hebt gehaald bij een vorige opleiding kun je een vrijstelling aanvragen. " +
			"Hierbij komen wel een paar eisen bij kijken:\n" +
			"- Het vak moet al met een voldoende zijn afgerond.\n" +
			"- Het vak is binnen 10 jaar behaald.\n\n" +
			"Als je aan alle eisen voldoet kun je langs jouw SLB'er gaan. " +
			"Vervolgens hoor je vanzelf of je ook daadwerkelijk vrijstelling krijgt of niet.",
	},
	{
		ID:       "extra-tijd",
		Question: "Hoe kan ik extra tijd aanvragen?",
		Answer: "Als je recht hebt op extra tijd zal dit al besproken zijn tijdens het introductiegesprek. " +
			"Ben je dit vergeten, ga dan langs je SLB'er om alsnog een aanvraag in te dienen. " +
			"Die gaat vervolgens in actie als jij recht hebt op extra tijd.",
	},
	{
		ID:       "herkansingen",
		Question: "Herkansingen",
		Answer: "Per examen zijn er twee pogingen beschikbaar. " +
			"Als het na de tweede poging niet is gelukt, wordt er een aanvraag gestuurd naar de examencommissie " +
			"om nog een extra poging te krijgen. Bespreek wel vooraf met jouw docent wat er fout is gegaan, " +
			"zodat je het vak dit keer wel haalt.",
	},
	{
		ID:       "ziek",
		Question: "Wat als je ziek bent geworden?",
		Answer:   "Neem direct contact op met jouw SLB'er. Er wordt op een ander moment een nieuwe examenpoging ingepland.",
	},
}

// cannedAnswers are replies for exact questions that skip retrieval. Keys are lower case.
var cannedAnswers = map[string]string{
	"hoe kan ik vrijstelling aanvragen?":           "Om vrijstelling aan te vragen, moet je een verzoek indienen bij de examencommissie.",
	"hoe kan ik extra tijd krijgen op mijn toets?": "Extra tijd aanvragen kan via een formulier bij de onderwijsadministratie. Vraag naar de procedure op je opleiding.",
}

// FAQEntries returns a copy of the preset questions.
func FAQEntries() []FAQEntry {
	out := make([]FAQEntry, len(faqEntries))
	copy(out, faqEntries)
	return out
}

func faqByID(id string) (FAQEntry, bool) {
	for _, entry := range faqEntries {
		if entry.ID == id {
			return entry, true
		}
	}
	return FAQEntry{}, false
}

func cannedAnswer(question string) (string, bool) {
	answer, ok := cannedAnswers[strings.ToLower(strings.TrimSpace(question))]
	return answer, ok
}
