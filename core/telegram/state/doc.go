// Package state keeps the per-user conversation state of a Telegram bot.
// Stores are injected into handlers; every Set is atomic for its user key.
package state
