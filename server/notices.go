package server

import (
	"sync"

	"github.com/jrsteele09/smartsport/session"
)

const sessionExpiredNotice = "Your session has expired. Please log in again."

var _ session.Navigator = (*Notices)(nil)

// Notices receives the Store's forced-logout navigation and shows it once
// on the next login view.
type Notices struct {
	mu      sync.Mutex
	pending string
}

func NewNotices() *Notices {
	return &Notices{}
}

func (n *Notices) Navigate(string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pending = sessionExpiredNotice
}

// Take returns the pending notice and clears it.
func (n *Notices) Take() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	notice := n.pending
	n.pending = ""
	return notice
}
