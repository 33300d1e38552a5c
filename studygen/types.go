package studygen

// StudyMaterial is the normalized study package produced from one document.
// Every field is guaranteed valid after normalization: the summary is
// non-empty, each quiz answer index points into its options.
type StudyMaterial struct {
	Summary      string      `json:"summary"`
	KeyTakeaways []string    `json:"keyTakeaways"`
	Flashcards   []Flashcard `json:"flashcards"`
	Quiz         []QuizItem  `json:"quiz"`
}

// Flashcard is a front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// QuizItem is a multiple-choice question with 2 to 4 options.
type QuizItem struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
	Category    string   `json:"category"`
}
