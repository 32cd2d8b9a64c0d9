// Package openai implements the ai interfaces using OpenAI-compatible APIs
// via langchaingo. It works with any service exposing the OpenAI embeddings
// endpoint: Ollama, LocalAI, vLLM, or OpenAI itself.
//
// The embedding client is constructed once per provider and reused for every
// encode call; construction is the expensive part and must not be repeated
// per record.
package openai
