//go:build !unix

package log

func isUnsupportedSync(error) bool { return false }
