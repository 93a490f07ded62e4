package multiarena

import (
	"testing"

	chunkfile "chunky/chunk/file"
)

func newTestFileStorage(t *testing.T, dir string) *chunkfile.Storage {
	t.Helper()
	s, err := chunkfile.New(chunkfile.Config{Dir: dir})
	if err != nil {
		t.Fatalf("chunkfile.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
