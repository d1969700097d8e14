package cache

// recencyList orders entries from most recently used (head) to least
// recently used (tail).
type recencyList struct {
	head  handle
	tail  handle
	len   int
	arena *arena
}

func newRecencyList(a *arena) *recencyList {
	return &recencyList{head: nilHandle, tail: nilHandle, arena: a}
}

// remove unlinks h. h must currently be in the list.
func (l *recencyList) remove(h handle) {
	e := l.arena.at(h)
	if e.prev != nilHandle {
		l.arena.at(e.prev).next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nilHandle {
		l.arena.at(e.next).prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nilHandle, nilHandle
	l.len--
}

// pushFront makes h the new head.
func (l *recencyList) pushFront(h handle) {
	e := l.arena.at(h)
	e.prev = nilHandle
	e.next = l.head
	if l.head != nilHandle {
		l.arena.at(l.head).prev = h
	}
	l.head = h
	if l.tail == nilHandle {
		l.tail = h
	}
	l.len++
}

// peekBack returns the tail without removing it.
func (l *recencyList) peekBack() handle {
	return l.tail
}

// promote moves h to the head.
func (l *recencyList) promote(h handle) {
	l.remove(h)
	l.pushFront(h)
}

func (l *recencyList) reset() {
	l.head, l.tail, l.len = nilHandle, nilHandle, 0
}
