package service

import "marcel.works/pointing/app/model"

// Sanitize returns the session as seen by viewerID. Until votes are revealed
// every vote except the viewer's own is cleared; HasVoted stays visible.
// A revealed session is returned as is and must be treated as read only.
func Sanitize(session *model.Session, viewerID string) *model.Session {
	if session.IsRevealed {
		return session
	}
	view := *session
	view.Users = make([]model.User, len(session.Users))
	for i, user := range session.Users {
		if user.ID != viewerID {
			user.Vote = model.NoVote
		}
		view.Users[i] = user
	}
	return &view
}
