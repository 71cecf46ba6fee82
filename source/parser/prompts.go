package parser

// specSystemPrompt instructs the model to answer with a bare JSON object.
const specSystemPrompt = `You are a strict specification parser. Your task is to read input text and extract structured information.

Return ONLY a JSON object with these exact fields:
  - title: string or null
  - sections: object mapping section names to text
  - requirements: array of requirement-like sentences
  - acceptance_criteria: array of acceptance criteria
  - examples: array of example statements
  - confidence: integer 0-100 expressing how confident you are that you extracted the spec correctly

DO NOT return explanations. DO NOT wrap the JSON in code fences. Only output raw JSON.`

// specDelimiter brackets the verbatim document inside the user prompt.
const specDelimiter = "------------------"

// specUserPrompt is the user prompt template. The %s placeholder is replaced
// with the document content.
const specUserPrompt = `Parse the following specification file. Use your best judgment to identify:
- title or heading
- sections and subsections
- requirement-like sentences (must, shall, should, cannot, etc.)
- acceptance criteria (Given/When/Then patterns, etc.)
- examples or usage patterns

Return ONLY the JSON object described above.

Here is the specification content:
` + specDelimiter + `
%s
` + specDelimiter + `
`
