package display

// Sink is a character display addressed by column and row.
type Sink interface {
	Clear() error
	SetCursor(col, row int) error
	Print(text string) error
	Close() error
}
