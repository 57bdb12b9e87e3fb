package lms

import "sync"

// Network is an ordered collection of LMS instances the application is
// connected to. It is passed explicitly to whoever needs it; the manager API
// may read it from another goroutine, hence the lock.
type Network struct {
	mu   sync.RWMutex
	list []*LMS
}

func NewNetwork() *Network {
	return &Network{list: make([]*LMS, 0)}
}

func (n *Network) Add(l *LMS) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, l)
}

func (n *Network) Get(i int) *LMS {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if i < 0 || i >= len(n.list) {
		return nil
	}
	return n.list[i]
}

func (n *Network) Remove(i int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if i < 0 || i >= len(n.list) {
		return
	}
	n.list = append(n.list[:i], n.list[i+1:]...)
}

func (n *Network) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.list)
}

// All returns a copy of the list in insertion order.
func (n *Network) All() []*LMS {
	n.mu.RLock()
	defer n.mu.RUnlock()
	all := make([]*LMS, len(n.list))
	copy(all, n.list)
	return all
}

func (n *Network) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = n.list[:0]
}
