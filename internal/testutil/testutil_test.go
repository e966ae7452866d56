package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDGenerator_Sequence(t *testing.T) {
	gen := NewIDGenerator()

	assert.Equal(t, "00000000-0000-0000-0000-000000000001", gen.Next())
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", gen.Next())

	gen.Reset()
	assert.Equal(t, ID(1), gen.Next())
}

func TestIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewIDGenerator()

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "every identifier must be unique")
}

func TestRegistry(t *testing.T) {
	r := Registry(t)
	assert.Equal(t, []string{"Enemy", "Spawner"}, r.Names())
}

func TestWriteFiles(t *testing.T) {
	root := WriteFiles(t, t.TempDir(), map[string]string{
		"a/b.txt": "hello",
	})
	data, err := os.ReadFile(filepath.Join(root, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
