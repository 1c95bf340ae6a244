package utils

// A Guard runs cleanup for an already-allocated resource when the function
// that allocated it fails partway through. Usage:
//
//	guard := NewGuard(func() { f.Close() })
//	defer guard.OnFail()
//	if (error) { return error }
//	guard.Success()
//	return nil
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a guard that runs onFailCleanup unless Success is called
// first.
func NewGuard(onFailCleanup func()) *Guard {
	ret := &Guard{}
	ret.OnFail = func() {
		if !ret.success {
			onFailCleanup()
		}
	}
	return ret
}

// Success declares the function succeeded and the failure cleanup does not
// need to run.
func (guard *Guard) Success() {
	guard.success = true
}
