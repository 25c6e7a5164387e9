package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file next to dst and renames
// it into place, creating parent directories on demand.
func WriteFileAtomic(dst string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

// WriteFileVerified writes data atomically and reads it back, comparing
// SHA256 digests. Removes dst on mismatch.
func WriteFileVerified(dst string, data []byte, mode os.FileMode) error {
	if err := WriteFileAtomic(dst, data, mode); err != nil {
		return err
	}
	written, err := os.ReadFile(dst)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if len(written) != len(data) {
		_ = os.Remove(dst)
		return fmt.Errorf("write size mismatch: expected %d bytes, found %d bytes", len(data), len(written))
	}
	want := sha256.Sum256(data)
	got := sha256.Sum256(written)
	if !bytes.Equal(want[:], got[:]) {
		_ = os.Remove(dst)
		return fmt.Errorf("write hash mismatch: file corrupted during write")
	}
	return nil
}
