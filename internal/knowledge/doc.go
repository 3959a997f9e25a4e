// ABOUTME: Package knowledge is the storage and matching engine of the development chat backend
// ABOUTME: It answers questions from a seeded SQLite knowledge base and records ratings

// Package knowledge stores categories, curated questions, conversations,
// and rated messages in SQLite, and answers free-text questions by keyword
// similarity against the curated set. It backs cmd/fake-tutor so the chat
// clients can run end to end without the production service.
package knowledge
