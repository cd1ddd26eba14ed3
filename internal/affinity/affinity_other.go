//go:build !linux

package affinity

// pinPlatform is a stub for platforms where thread affinity is not
// supported.
func pinPlatform(cpu int) (restore func(), err error) {
	return nil, ErrUnsupported
}
