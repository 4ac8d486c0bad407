package sender

import (
	"fmt"
	"os"
)

// LoadObject materializes the raw bytes of the object to broadcast. It is
// intentionally a thin os.ReadFile wrapper: the one seam sender.Run calls
// through.
func LoadObject(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sender: load object %s: %w", path, err)
	}
	return data, nil
}
