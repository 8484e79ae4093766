package llm

// analysisPrompt asks the model for publishable metadata. The response must
// be a single JSON object so the caller can hand it straight back to
// clients.
const analysisPrompt = `You are a social media strategist. Given details about a short video,
generate a viral title, an engaging description, and exactly 5 hashtags.
Respond with a single JSON object using the keys "title" (string),
"description" (string), and "hashtags" (array of 5 strings). Do not
include any text outside the JSON object.`
