package entity

// Choice is one interactive button attached to a message
type Choice struct {
	Label  string
	Action CallbackAction
}

// Keyboard is a grid of choices, one slice per row
type Keyboard [][]Choice

// IncomingMessage is a text message received from a user.
// Replies go to UserID, the bot only talks in private chats.
type IncomingMessage struct {
	UserID    int64
	Username  string
	FirstName string
	Text      string
}

// CallbackQuery is a button press received from a user
type CallbackQuery struct {
	ID        string
	UserID    int64
	Username  string
	FirstName string
	Data      string
}
