package catalog

// Provider identifies one third-party content source.
type Provider struct {
	Name string `json:"name"`
	API  string `json:"api"`
}

// TestSeriesSummary is one purchasable or free series offered by a provider.
// ProviderName and ProviderAPI are filled in by the batch aggregator and are
// the join key for subsequent subject and title lookups.
type TestSeriesSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Logo         string   `json:"logo,omitempty"`
	IsPaid       bool     `json:"isPaid"`
	TotalTests   int      `json:"totalTests"`
	ExpiresOn    string   `json:"expiresOn,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	ProviderName string   `json:"providerName,omitempty"`
	ProviderAPI  string   `json:"providerApi,omitempty"`
}

// Subject groups tests inside one series.
type Subject struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Logo       string `json:"logo,omitempty"`
	TotalTests int    `json:"totalTests"`
}

// TestTitle is a single timed test inside a subject.
type TestTitle struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	TotalQuestions  int    `json:"totalQuestions"`
	TotalMarks      int    `json:"totalMarks"`
	QuestionsURL    string `json:"questionsUrl"`
	IsPremium       bool   `json:"isPremium"`
	AttemptCount    *int   `json:"attemptCount,omitempty"`
}

// Option is one answer choice of a question.
type Option struct {
	ID       string `json:"id"`
	TextHTML string `json:"textHtml"`
}

// QuizQuestion is one multiple-choice question. Text fields hold provider
// HTML unchanged; use PlainText for display outside a browser.
type QuizQuestion struct {
	ID              string   `json:"id"`
	QuestionHTML    string   `json:"questionHtml"`
	Options         []Option `json:"options"`
	CorrectAnswerID string   `json:"correctAnswerId"`
	SolutionHTML    string   `json:"solutionHtml,omitempty"`
}

// BatchResult is what one provider contributed to a batch.
type BatchResult[T any] struct {
	Provider Provider `json:"provider"`
	Data     []T      `json:"data"`
}
