package analysis

import "strings"

// The prompts mirror the three passes of the interview-helper workflow. Focus areas are
// inserted verbatim; the transcript text always comes last in the user turn.

const extractSystemPrompt = `You are a model specialized in the analysis of scientific research interviews. The interviews cover: {{focus}}. Due to their length, the interviews are divided into parts and marked with interview and part numbers.`

const extractUserPrompt = `Quote from the research interviews. Interviews are delivered in parts to reduce length. Do not provide context to the interview, focus on quoting specific sentences from the interview that represent key findings only:`

const mergeSystemPrompt = `You are a model specializing in the analysis of scientific research interviews. Due to their length, the interviews have been divided into parts and another model has already quoted for each part the most important findings on the topics of: {{focus}}`

const mergeUserPrompt = `Combine the quotes collected from the different interview sections into a collection of concept quotes for the whole interview. Do not categorize them yet. Some interview sections did not contain any quotes of findings and can therefore be ignored in the summary. Please provide the quotes in a list of bullet points using in total 300 words at maximum:`

const structureSystemPrompt = `You are a model specializing in the analysis of scientific research interviews and are tasked to develop a data structure. You have a total of 750 words available for this.`

const structureUserPrompt = `Using the provided quotes, apply the Gioia data structuring method (2004) to create a data structure with the provided full quotes used as 1st order concepts, summarizing them into 2nd order themes, and aggregating them into dimensions. Example output format: Dimension 1:
-> Theme 1:
   --> Concept 1
   --> Concept 2
-> Theme 2:
   --> Concept 3

Dimension 2:
-> Theme 3:
   --> Concept 4
   --> Concept 5
-> Theme 4:
   --> Concept 6
   --> Concept 7
Provide data structure indicating concept to theme and dimension.:`

// structureJSONUserPrompt replaces the example layout when the response is schema-constrained.
const structureJSONUserPrompt = `Using the provided quotes, apply the Gioia data structuring method (2004) to create a data structure with the provided full quotes used as 1st order concepts, summarizing them into 2nd order themes, and aggregating them into dimensions. Return the dimensions in order, each with its themes, each theme with its concept quotes.:`

func withFocus(tmpl, focus string) string {
	return strings.ReplaceAll(tmpl, "{{focus}}", focus)
}

func userTurn(instruction, payload string) string {
	return instruction + " " + payload
}
