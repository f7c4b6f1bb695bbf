//go:build !unix && !windows

package mmap

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	return make([]byte, size), nil, nil
}

func osDiscard([]byte) error {
	return nil
}
