// Package storage keeps uploaded map images on disk.
package storage

// Provider is the interface for image file operations. Names are plain file
// names inside the image root; anything resembling a path is rejected.
type Provider interface {
	// Read returns the raw bytes of the image name.
	Read(name string) ([]byte, error)
	// Write atomically writes content to name.
	Write(name string, content []byte) error
	// Delete removes the image name.
	Delete(name string) error
	// Path returns the absolute path of name for serving it directly.
	Path(name string) (string, error)
}
