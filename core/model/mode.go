package model

// Mode tells a record mapper whether it shapes a new account or an update
// candidate for an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeCreate || m == ModeUpdate
}
