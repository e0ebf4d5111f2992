package util

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_loadConfig(t *testing.T) {
	name := filepath.Join(t.TempDir(), "vecagg.toml")
	content := `
[accum]
chunkCapacity = 1024
memoryLimit = 1048576

[spill]
partitions = 4
compress = false

[gen]
rows = 1000
groups = 10
`
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
	cfg, err := LoadConfig(name)
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Accum.ChunkCapacity)
	assert.Equal(t, int64(1<<20), cfg.Accum.MemoryLimit)
	assert.Equal(t, 4, cfg.Spill.Partitions)
	assert.False(t, cfg.Spill.Compress)
	assert.Equal(t, 1000, cfg.Gen.Rows)
	//untouched keys keep defaults
	assert.Equal(t, uint(32), cfg.Accum.Layout.OrdinalShift)
	assert.Equal(t, DefaultVectorSize, cfg.Gen.BatchSize)
}

func Test_configValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	cfg.Accum.ChunkCapacity = 1000
	assert.Error(t, cfg.Validate())
	cfg = DefaultConfig()
	cfg.Spill.Partitions = 0
	assert.Error(t, cfg.Validate())
}

func Test_callGuard(t *testing.T) {
	guard := &CallGuard{}
	guard.Enter()
	guard.Enter()
	guard.Exit()
	guard.Exit()

	guard.Enter()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.Panics(t, func() {
			guard.Enter()
		})
	}()
	wg.Wait()
	guard.Exit()
}
