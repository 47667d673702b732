package queue

// optIndex is a slot index that may be unset.
//
// The retrieve position of a CCQ is unset exactly when the queue is empty,
// which lets insert == retrieve mean "full" without sacrificing a slot.
type optIndex struct {
	pos   int
	valid bool
}

func (o optIndex) get() (int, bool) {
	return o.pos, o.valid
}

func (o *optIndex) set(pos int) {
	o.pos = pos
	o.valid = true
}

func (o *optIndex) clear() {
	*o = optIndex{}
}

// is reports whether the index is set and equal to pos.
func (o optIndex) is(pos int) bool {
	return o.valid && o.pos == pos
}
