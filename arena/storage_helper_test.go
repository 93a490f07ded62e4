package arena

import (
	"testing"

	chunkfile "chunky/chunk/file"
)

func newFileStorage(t *testing.T) (*chunkfile.Storage, error) {
	t.Helper()
	dir := t.TempDir()
	s, err := chunkfile.New(chunkfile.Config{Dir: dir})
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { s.Close() })
	return s, nil
}
