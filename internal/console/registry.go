package console

import (
	"sync"
	"time"
)

// Services are the collaborators shared by every session's controllers
type Services struct {
	Feedback    FeedbackLister
	Waitlist    WaitlistLister
	Templates   TemplateLister
	Email       EmailSender
	SearchDelay time.Duration
}

type pages struct {
	feedback *FeedbackPage
	waitlist *WaitlistPage
	lastUsed time.Time
}

// Registry keeps one set of page controllers per browser session
type Registry struct {
	svc Services

	mu       sync.Mutex
	sessions map[string]*pages
}

func NewRegistry(svc Services) *Registry {
	return &Registry{svc: svc, sessions: make(map[string]*pages)}
}

func (r *Registry) get(sessionID string) *pages {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.sessions[sessionID]
	if !ok {
		p = &pages{
			feedback: NewFeedbackPage(r.svc.Feedback, r.svc.SearchDelay),
			waitlist: NewWaitlistPage(r.svc.Waitlist, r.svc.Templates, r.svc.Email, r.svc.SearchDelay),
		}
		r.sessions[sessionID] = p
	}
	p.lastUsed = time.Now()
	return p
}

func (r *Registry) Feedback(sessionID string) *FeedbackPage {
	return r.get(sessionID).feedback
}

func (r *Registry) Waitlist(sessionID string) *WaitlistPage {
	return r.get(sessionID).waitlist
}

// Forget drops a session's controllers
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// Sweep drops controllers idle for longer than maxIdle and returns how many
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, p := range r.sessions {
		if p.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
