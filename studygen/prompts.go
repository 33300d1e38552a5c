package studygen

// MaxPromptChars bounds the document text sent to the model. The cut is a
// silent character-prefix truncation.
const MaxPromptChars = 20000

const systemPrompt = "You are an AI study assistant. Return STRICT JSON with this exact schema:\n" +
	"{\n" +
	"  \"summary\": \"string\",\n" +
	"  \"keyTakeaways\": [\"string\", \"...\"],\n" +
	"  \"flashcards\": [{\"front\": \"string\", \"back\": \"string\"}],\n" +
	"  \"quiz\": [\n" +
	"    {\n" +
	"      \"question\": \"string\",\n" +
	"      \"options\": [\"string\",\"string\",\"string\",\"string\"],\n" +
	"      \"answerIndex\": 0,\n" +
	"      \"explanation\": \"string\"\n" +
	"    }\n" +
	"  ]\n" +
	"}\n" +
	"\n" +
	"Summary rules:\n" +
	"- Write a DEEP, EXPLANATORY, paraphrased summary (do NOT copy the document sentences).\n" +
	"- If equations appear, explain symbols, steps, and intuition (what/why/how, assumptions, units when useful).\n" +
	"- Provide context, motivations, and practical implications.\n" +
	"- Prefer short subsection headings for clarity.\n" +
	"- Length: roughly 450-800 words, unless the input is very short.\n" +
	"\n" +
	"KeyTakeaways rules:\n" +
	"- 6-10 concise bullets; avoid duplicating full sentences from the summary; keep punchy and testable.\n" +
	"\n" +
	"Flashcards rules:\n" +
	"- 8-12 cards; front is a term/question, back is the answer/definition; include important equations with variable meanings.\n" +
	"\n" +
	"Quiz rules:\n" +
	"- 6-10 MCQs; 4 options; exactly one correct answer via answerIndex; each MUST include a brief explanation.\n" +
	"\n" +
	"Return ONLY valid JSON. No markdown, no comments, no extra keys."

const userPromptTemplate = "From the following text, produce the JSON as specified. Make the summary deeply explanatory with thorough paraphrasing.\n\n" +
	"TEXT (truncated):\n%s"

const expandSystemPrompt = "You are an AI writing assistant. Return STRICT JSON with this exact schema:\n" +
	"{ \"summary\": \"string\" }\n" +
	"No markdown, no extra keys."

const expandUserTemplate = "Expand and deepen the following summary to 450-800 words, keeping it fully paraphrased (no copying). " +
	"Explain any equations (each symbol's meaning, steps/intuition, assumptions, units if helpful). " +
	"Add context, motivations, and practical implications. Keep it clear and well-structured with short headings.\n\n" +
	"ORIGINAL DOCUMENT (truncated):\n%s\n\n" +
	"CURRENT SUMMARY (too short):\n%s"

// truncateChunk cuts text to at most max characters (runes, so a multi-byte
// rune is never split).
func truncateChunk(text string, max int) string {
	if max <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}
