package state

import "context"

// State identifies the step a user is at. Bots define their own closed set of values.
type State string

// Store persists the current State per Telegram user.
type Store interface {
	// Get returns the stored state and whether the user has been seen.
	Get(ctx context.Context, userID int64) (State, bool, error)
	// Set replaces the user's state atomically and returns the previous value ("" if unseen).
	Set(ctx context.Context, userID int64, st State) (State, error)
	// Counts reports how many users are in each state.
	Counts(ctx context.Context) (map[State]int, error)
}
