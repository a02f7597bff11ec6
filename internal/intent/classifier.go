package intent

import "strings"

// Weights for each term set. Phrase matches dominate; context terms nudge.
const (
	weightExactPhrase     = 50
	weightPrimaryKeyword  = 20
	weightActionVerb      = 15
	weightAppointmentNoun = 10
	weightPetContext      = 5
	weightVetContext      = 5
	weightTimeContext     = 3

	bonusActionNoun = 25
	bonusPetVet     = 15
	bonusTimeNoun   = 10

	bookingThreshold = 25
)

// exactPhrases are matched as whole phrases against the normalized text.
var exactPhrases = []string{
	"book an appointment",
	"book appointment",
	"make an appointment",
	"make appointment",
	"schedule an appointment",
	"schedule appointment",
	"set up an appointment",
	"need an appointment",
	"want an appointment",
	"get an appointment",
	"book a visit",
	"schedule a visit",
	"book a checkup",
	"book me in",
	"i'd like to book",
	"i would like to book",
	"see the vet",
	"see a vet",
	"bring my dog in",
	"bring my cat in",
}

// Single-word sets. A word can belong to more than one set; "book" is both a
// primary keyword and an action verb, so a bare "book" clears the threshold.
var (
	primaryKeywords = []string{
		"book", "booking", "appointment", "appointments", "schedule", "reserve", "reservation",
	}
	actionVerbs = []string{
		"book", "schedule", "make", "get", "set", "need", "want", "arrange", "plan", "bring", "reserve",
	}
	appointmentNouns = []string{
		"appointment", "appointments", "booking", "visit", "checkup", "check-up",
		"consultation", "consult", "exam", "examination", "slot", "session",
		"vaccination", "grooming",
	}
	petContextTerms = []string{
		"dog", "dogs", "cat", "cats", "puppy", "kitten", "bird", "rabbit",
		"hamster", "fish", "reptile", "pet", "pets", "animal",
	}
	vetContextTerms = []string{
		"vet", "veterinarian", "veterinary", "clinic", "doctor",
	}
	timeContextTerms = []string{
		"today", "tomorrow", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "morning", "afternoon", "evening",
		"week", "weekend", "soon", "urgent",
	}
)

// quickBookingWords is the fast-path subset: every word here scores at least
// the booking threshold on its own in the full classifier.
var quickBookingWords = []string{
	"book", "booking", "appointment", "appointments", "schedule", "reserve",
}

// Classification is the scored result for one utterance.
type Classification struct {
	IsBooking   bool     `json:"is_booking"`
	Score       int      `json:"score"`
	Confidence  float64  `json:"confidence"`
	MatchedSets []string `json:"matched_sets,omitempty"`
}

// Classify scores the text against the weighted term sets and reports whether
// it expresses booking intent. Pure function of the text and the static
// tables; identical input always yields an identical result.
func Classify(text string) Classification {
	normalized := Normalize(text)
	if normalized == "" {
		return Classification{}
	}
	padded := " " + normalized + " "

	score := 0
	var matched []string

	phraseHit := false
	for _, p := range exactPhrases {
		if strings.Contains(padded, " "+p+" ") {
			score += weightExactPhrase
			phraseHit = true
		}
	}
	if phraseHit {
		matched = append(matched, "exact_phrases")
	}

	primary := scoreSet(padded, primaryKeywords, weightPrimaryKeyword, &score)
	action := scoreSet(padded, actionVerbs, weightActionVerb, &score)
	noun := scoreSet(padded, appointmentNouns, weightAppointmentNoun, &score)
	pet := scoreSet(padded, petContextTerms, weightPetContext, &score)
	vet := scoreSet(padded, vetContextTerms, weightVetContext, &score)
	timeCtx := scoreSet(padded, timeContextTerms, weightTimeContext, &score)

	if primary {
		matched = append(matched, "primary_keywords")
	}
	if action {
		matched = append(matched, "action_verbs")
	}
	if noun {
		matched = append(matched, "appointment_nouns")
	}
	if pet {
		matched = append(matched, "pet_context")
	}
	if vet {
		matched = append(matched, "vet_context")
	}
	if timeCtx {
		matched = append(matched, "time_context")
	}

	if action && noun {
		score += bonusActionNoun
	}
	if pet && (vet || noun) {
		score += bonusPetVet
	}
	if timeCtx && noun {
		score += bonusTimeNoun
	}

	confidence := float64(score) / 100
	if confidence > 1 {
		confidence = 1
	}

	return Classification{
		IsBooking:   score >= bookingThreshold,
		Score:       score,
		Confidence:  confidence,
		MatchedSets: matched,
	}
}

func scoreSet(padded string, terms []string, weight int, score *int) bool {
	hit := false
	for _, t := range terms {
		if strings.Contains(padded, " "+t+" ") {
			*score += weight
			hit = true
		}
	}
	return hit
}

// QuickBookingCheck is a conservative fast path: true only for text containing
// one of the strongest booking words. It may miss bookings the full scorer
// catches, but never flags text the full scorer would reject.
func QuickBookingCheck(text string) bool {
	padded := " " + Normalize(text) + " "
	for _, w := range quickBookingWords {
		if strings.Contains(padded, " "+w+" ") {
			return true
		}
	}
	return false
}
