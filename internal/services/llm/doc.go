// Package llm provides the chat completion client used by the planning,
// writing, and multimedia stages.
//
// The client speaks the OpenAI-compatible chat completion protocol and
// retries transient failures with exponential backoff, honoring Retry-After
// hints on rate-limit responses. Terminal failures carry the service
// sentinel matching their cause so stage code can report them precisely.
package llm
