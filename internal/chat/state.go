package chat

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"bakerychat/internal/models"
)

// State is a step of a chat turn
type State int

const (
	AwaitingInput State = iota
	Matching
	OrderConfirmed
	Delegating
	Responded
)

var stateNames = map[State]string{
	AwaitingInput:  "awaiting_input",
	Matching:       "matching",
	OrderConfirmed: "order_confirmed",
	Delegating:     "delegating",
	Responded:      "responded",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state by name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Turn is the outcome of one user message
type Turn struct {
	Reply string        `json:"reply"`
	Order *models.Order `json:"order,omitempty"`
	// Path is how the reply was produced: OrderConfirmed or Delegating
	Path State `json:"state"`
}

// UnavailableMessage is what the visitor sees when the assistant fails
const UnavailableMessage = "assistant unavailable"

// DelegationError reports that the chat engine failed or did not answer in time
type DelegationError struct {
	Timeout  time.Duration
	TimedOut bool
	Err      error
}

func (e *DelegationError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("chat engine did not answer within %s", e.Timeout)
	}
	return fmt.Sprintf("chat engine failed: %v", e.Err)
}

func (e *DelegationError) Unwrap() error { return e.Err }

// IsDelegation reports whether err is a *DelegationError
func IsDelegation(err error) bool {
	var de *DelegationError
	return errors.As(err, &de)
}
