// Package openaicompat implements provider.Provider against any
// OpenAI-compatible Chat Completions backend. Generation is always
// streamed; structured output is requested through the response_format
// json_schema mechanism.
package openaicompat
