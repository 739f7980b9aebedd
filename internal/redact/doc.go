// Package redact removes secrets from violation messages and annotated source
// lines before a report is rendered.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, and provider-specific tokens (GitHub, Slack, OpenAI, Anthropic).
//
// Path-based redaction is also supported: files whose paths match configured
// glob patterns have their source withheld from rendered output entirely
// rather than being scanned line by line.
package redact
