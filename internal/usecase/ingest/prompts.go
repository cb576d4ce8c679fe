package ingest

import "fmt"

// classifyTemplate is a few-shot sentiment classifier. The examples pin the
// model to single-word outputs from the closed label set.
const classifyTemplate = `Classify the sentiment of the message
Input: I had a terrible experience with this store. The clothes were of poor quality and overpriced.
Output: negative

Input: The clothing selection is decent, but the customer service needs improvement. It was just an okay experience.
Output: neutral

Input: I absolutely love shopping here! The staff is so helpful, and I always find stylish and affordable clothes.
Output: positive

Input: %s
Output:
`

// advisoryTemplate asks for an actionable response the business owner can
// read alongside the raw feedback.
const advisoryTemplate = `User given feedback for us, please provide a summary or suggestion how to address common issues raised to act for us as company. Format the results in markdown. Here is the feedback: %s`

func classifyPrompt(text string) string {
	return fmt.Sprintf(classifyTemplate, text)
}

func advisoryPrompt(text string) string {
	return fmt.Sprintf(advisoryTemplate, text)
}
