package entity

import (
	"fmt"
	"strings"
)

// CallbackKind tags the action carried by an interactive choice
type CallbackKind string

const (
	CallbackAirport      CallbackKind = "airport"
	CallbackTrackMethod  CallbackKind = "method"
	CallbackFlight       CallbackKind = "flight"
	CallbackAlertNew     CallbackKind = "alert_new"
	CallbackAlertCancel  CallbackKind = "alert_cancel"
	CallbackAlertHistory CallbackKind = "alert_history"
	CallbackTrackCancel  CallbackKind = "track_cancel"
	CallbackRouteCancel  CallbackKind = "route_cancel"
)

// argument count per kind
var callbackArity = map[CallbackKind]int{
	CallbackAirport:      2,
	CallbackTrackMethod:  1,
	CallbackFlight:       1,
	CallbackAlertNew:     4,
	CallbackAlertCancel:  1,
	CallbackAlertHistory: 1,
	CallbackTrackCancel:  1,
	CallbackRouteCancel:  1,
}

const (
	callbackSeparator = "|"
	// MaxCallbackLength is the transport's limit on callback payload size
	MaxCallbackLength = 64
)

// CallbackAction is a typed interactive choice. It is encoded when the
// message is sent and decoded when the user presses the button.
type CallbackAction struct {
	Kind CallbackKind
	Args []string
}

// NewCallbackAction builds an action of the given kind
func NewCallbackAction(kind CallbackKind, args ...string) CallbackAction {
	return CallbackAction{Kind: kind, Args: args}
}

// Arg returns the i-th argument or an empty string
func (a CallbackAction) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

// Encode serialises the action into a callback payload
func (a CallbackAction) Encode() (string, error) {
	if err := a.validate(); err != nil {
		return "", err
	}
	for _, arg := range a.Args {
		if strings.Contains(arg, callbackSeparator) {
			return "", fmt.Errorf("%w: callback argument %q contains separator", ErrInvalidInput, arg)
		}
	}
	parts := append([]string{string(a.Kind)}, a.Args...)
	data := strings.Join(parts, callbackSeparator)
	if len(data) > MaxCallbackLength {
		return "", fmt.Errorf("%w: callback payload exceeds %d bytes", ErrInvalidInput, MaxCallbackLength)
	}
	return data, nil
}

// ParseCallbackAction decodes a callback payload. Unknown kinds and
// payloads with the wrong number of arguments are rejected.
func ParseCallbackAction(data string) (CallbackAction, error) {
	if data == "" || len(data) > MaxCallbackLength {
		return CallbackAction{}, fmt.Errorf("%w: malformed callback payload", ErrInvalidInput)
	}
	parts := strings.Split(data, callbackSeparator)
	action := CallbackAction{Kind: CallbackKind(parts[0]), Args: parts[1:]}
	if err := action.validate(); err != nil {
		return CallbackAction{}, err
	}
	return action, nil
}

func (a CallbackAction) validate() error {
	arity, ok := callbackArity[a.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown callback kind %q", ErrInvalidInput, a.Kind)
	}
	if len(a.Args) != arity {
		return fmt.Errorf("%w: callback %q expects %d arguments, got %d", ErrInvalidInput, a.Kind, arity, len(a.Args))
	}
	return nil
}
