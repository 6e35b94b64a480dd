// state/interfaces.go
package state

// Player defines the minimal interface for whoever sent an action.
type Player interface {
	GetID() string
}

// Action is a decoded input message handed to the current state.
type Action interface {
	ActionType() string
}
