// Package assistant runs spreadsheet-assistant queries against a
// configurable inference provider.
//
// A Runner ties together the session store, the model resolver, and a
// Provider. Each Query appends the user's request (augmented with the
// spreadsheet context) to the conversation, calls the provider with
// the full history, and appends the reply.
//
// Three providers are available: a deterministic stub used when no API
// credentials are configured, Anthropic, and OpenAI. NewProvider picks
// one from the configuration.
package assistant
