// Package identity defines the user identity shared across the bot.
// The stable Discord user ID is the key for every per-user cache and
// transcript record; no component keys state by anything else.
package identity

// User identifies a Discord user.
type User struct {
	// ID is the stable Discord user ID (snowflake as string).
	ID string

	// Name is the display username.
	Name string

	// Discriminator is the legacy four-digit tag ("0" on new usernames).
	Discriminator string
}

// SessionID returns the conversational session identifier for the user.
// Sessions are keyed by user ID: one logical conversation per user.
func (u User) SessionID() string { return u.ID }
