// Package views decides which view a browser sees. All functions are pure:
// they take a State and return the next one.
package views

import (
	"civicsync-web/models"
)

// View enum
type View string

const (
	Welcome View = "welcome"
	Agenda  View = "agenda"
	Report  View = "report"
	Chat    View = "chat"
	Login   View = "login"
)

var ErrUnknownView = models.FieldError("view", "view.error.unknown")

// Parse converts a view name from a request.
func Parse(name string) (View, error) {
	switch v := View(name); v {
	case Welcome, Agenda, Report, Chat, Login:
		return v, nil
	}
	return "", ErrUnknownView
}

// Protected reports whether v requires a session.
func (v View) Protected() bool {
	return v == Report || v == Chat
}

// State is the router state of one browser. Active is the last requested
// view; Pending is the protected view a logged-out user asked for.
type State struct {
	Active  View `json:"active"`
	Pending View `json:"pending,omitempty"`
}

// Initial is the state of a fresh browser.
func Initial() State {
	return State{Active: Welcome}
}

// Navigate requests view v.
func Navigate(s State, v View, authenticated bool) State {
	next := State{Active: v, Pending: s.Pending}
	if v.Protected() && !authenticated {
		next.Pending = v
	} else if v != Login {
		next.Pending = ""
	}
	return next
}

// Effective is the view actually rendered and highlighted: a protected view
// requested without a session renders as Login.
func Effective(s State, authenticated bool) View {
	if s.Active.Protected() && !authenticated {
		return Login
	}
	if s.Active == "" {
		return Welcome
	}
	return s.Active
}

// OnAuthenticated moves to Welcome after a successful login or signup.
// Pending is kept so the caller can offer to resume it.
func OnAuthenticated(s State) State {
	return State{Active: Welcome, Pending: s.Pending}
}

// OnLogout returns to Welcome and forgets any pending intent.
func OnLogout(State) State {
	return Initial()
}

// Resume navigates to the pending view, if any, and clears it.
func Resume(s State, authenticated bool) State {
	if s.Pending == "" {
		return s
	}
	return Navigate(State{Active: s.Active}, s.Pending, authenticated)
}
