package core

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionUserIDKey = "user_id"

// SessionGate is the typed accessor over one request's session. The session
// holds a single field of interest, the authenticated user's id; transport
// (signed cookie, backing store) belongs to the sessions package.
//
// Per gate the states are Anonymous and Authenticated: Establish moves
// Anonymous -> Authenticated, Purge moves back. Callers check CurrentUserID
// before Establish and treat an already-authenticated caller as a routing
// decision.
type SessionGate struct {
	session *sessions.Session
	req     *http.Request
	w       http.ResponseWriter
}

func NewSessionGate(session *sessions.Session, req *http.Request, w http.ResponseWriter) *SessionGate {
	return &SessionGate{session: session, req: req, w: w}
}

// CurrentUserID reads the authenticated user id. Absence of a session value,
// or a value of an unexpected type, yields (0, false), never an error.
func (g *SessionGate) CurrentUserID() (int64, bool) {
	if g.session == nil {
		return 0, false
	}
	switch v := g.session.Values[sessionUserIDKey].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}

// Establish writes the user id field and persists the session. A write
// failure is fatal to the login flow and surfaces as ErrSession.
func (g *SessionGate) Establish(userID int64) error {
	g.session.Values[sessionUserIDKey] = userID
	if err := g.session.Save(g.req, g.w); err != nil {
		return wrapKind(ErrSession, err)
	}
	return nil
}

// Purge unconditionally invalidates the session and expires its cookie.
// Idempotent: purging an already-empty session is not an error.
func (g *SessionGate) Purge() error {
	g.session.Values = map[interface{}]interface{}{}
	g.session.Options.MaxAge = -1
	if err := g.session.Save(g.req, g.w); err != nil {
		return wrapKind(ErrSession, err)
	}
	return nil
}
