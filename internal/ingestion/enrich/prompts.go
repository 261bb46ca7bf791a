package enrich

import "fmt"

func objectivesPrompt(sample string) string {
	return fmt.Sprintf(`Based on this technical training content, generate 3-5 clear learning objectives. Format as a JSON array of strings.

Content:
%s

Respond with ONLY a JSON array, no other text.`, sample)
}

func questionsPrompt(sample string) string {
	return fmt.Sprintf(`Based on this technical training content, generate 5 multiple-choice quiz questions. Each question should have 4 options (A, B, C, D) with one correct answer.

Format as JSON array:
[
  {
    "question": "Question text?",
    "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
    "correct": "A",
    "explanation": "Why this is correct"
  }
]

Content:
%s

Respond with ONLY a JSON array, no other text.`, sample)
}
