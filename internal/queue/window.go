package queue

// Window is a contiguous run of slots inside the backing buffer, handed
// out by AcquireWrite or AcquireRead.
//
// A Window is valid until the matching CommitWrite or CommitRead. After
// that the slots belong to the other side and must not be touched.
type Window struct {
	buf  []byte
	size int
}

// Bytes returns the window as one byte slice of Slots()*ElementSize bytes.
func (w Window) Bytes() []byte {
	return w.buf
}

// Len returns the window length in bytes.
func (w Window) Len() int {
	return len(w.buf)
}

// Slots returns the number of slots in the window.
func (w Window) Slots() int {
	if w.size == 0 {
		return 0
	}
	return len(w.buf) / w.size
}

// Slot returns the bytes of the i-th slot of the window.
func (w Window) Slot(i int) []byte {
	off := i * w.size
	return w.buf[off : off+w.size : off+w.size]
}
