package util

import "unsafe"

// BytesToString reinterprets b as a string without copying. The
// caller must not mutate b afterwards.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StringToBytes reinterprets s as a byte slice without copying. The
// returned slice must not be written to.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}

	return unsafe.Slice(unsafe.StringData(s), len(s))
}
