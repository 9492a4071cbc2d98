// Package event defines the logical lifecycle actions that signals, file
// watchers, schedules and operators post to a running daemon.
package event

import (
	"fmt"
	"strings"
)

// Kind identifies what an Action asks the daemon to do.
type Kind int

const (
	// KindReload re-runs the load, validate and mutate cycle and commits the
	// result if it succeeds.
	KindReload Kind = iota + 1

	// KindTerminate starts an orderly shutdown.
	KindTerminate

	// KindCustom is dispatched to handlers registered for the action's tag.
	KindCustom
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindReload:
		return "reload"
	case KindTerminate:
		return "terminate"
	case KindCustom:
		return "custom"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is a logical lifecycle request.
type Action struct {
	// Kind is the requested transition.
	Kind Kind

	// Tag names the handler set for KindCustom actions. Empty otherwise.
	Tag string

	// Source describes who posted the action (e.g. "signal:SIGHUP", "watch").
	// It is informational and never affects dispatch.
	Source string
}

// Reload returns a reload action.
func Reload() Action { return Action{Kind: KindReload} }

// Terminate returns a terminate action.
func Terminate() Action { return Action{Kind: KindTerminate} }

// Custom returns a user-defined action dispatched by tag.
func Custom(tag string) Action { return Action{Kind: KindCustom, Tag: tag} }

// From returns a copy of a with Source set.
func (a Action) From(source string) Action {
	a.Source = source
	return a
}

// String renders the action the way Parse accepts it.
func (a Action) String() string {
	if a.Kind == KindCustom {
		return "custom:" + a.Tag
	}
	return a.Kind.String()
}

// Parse converts "reload", "terminate" or "custom:<tag>" into an Action.
func Parse(s string) (Action, error) {
	s = strings.TrimSpace(s)
	kind, tag, hasTag := strings.Cut(s, ":")
	kind = strings.ToLower(kind)
	switch {
	case kind == "reload" && !hasTag:
		return Reload(), nil
	case kind == "terminate" && !hasTag:
		return Terminate(), nil
	case kind == "custom" && hasTag:
		if tag == "" {
			return Action{}, fmt.Errorf("custom action requires a tag")
		}
		return Custom(tag), nil
	default:
		return Action{}, fmt.Errorf("unknown action %q (expected reload, terminate or custom:<tag>)", s)
	}
}

// Poster accepts actions for asynchronous processing. Post never blocks on
// the processing of the action itself.
type Poster interface {
	Post(Action)
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(Action)

// Post calls f(a).
func (f PosterFunc) Post(a Action) { f(a) }
