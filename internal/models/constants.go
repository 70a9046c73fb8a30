package models

const (
	// NoAnswerMessage is returned when retrieval finds nothing relevant.
	NoAnswerMessage = "Sorry, I could not find any information about your question."

	SystemPrompt = `You are a helpful product support assistant.
Answer user questions using only the provided documentation context.
If the context does not contain the answer, say so honestly.
Keep answers short and to the point.`

	AnswerPromptTemplate = `Documentation context:
%s

User question: %s

Answer:`
)
