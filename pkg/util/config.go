// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// LayoutOptions describes the packed ordinal word emitted by the hash
// matching stage. Shifts and widths are in bits.
type LayoutOptions struct {
	IndexShift     uint `toml:"indexShift"`
	IndexBits      uint `toml:"indexBits"`
	PartitionShift uint `toml:"partitionShift"`
	PartitionBits  uint `toml:"partitionBits"`
	OrdinalShift   uint `toml:"ordinalShift"`
	OrdinalBits    uint `toml:"ordinalBits"`
}

type AccumOptions struct {
	ChunkCapacity int           `toml:"chunkCapacity"`
	MemoryLimit   int64         `toml:"memoryLimit"`
	Layout        LayoutOptions `toml:"layout"`
}

type SpillOptions struct {
	Dir        string `toml:"dir"`
	Partitions int    `toml:"partitions"`
	Compress   bool   `toml:"compress"`
}

type GenOptions struct {
	Rows      int     `toml:"rows"`
	Groups    int     `toml:"groups"`
	BatchSize int     `toml:"batchSize"`
	NullRatio float64 `toml:"nullRatio"`
	Seed      int64   `toml:"seed"`
	Fragments int     `toml:"fragments"`
}

type ParquetOptions struct {
	Path         string   `toml:"path"`
	KeyColumn    int      `toml:"keyColumn"`
	ValueColumns []int    `toml:"valueColumns"`
	Aggregates   []string `toml:"aggregates"`
}

type DebugOptions struct {
	LogLevel    string `toml:"logLevel"`
	PrintState  bool   `toml:"printState"`
	PrintResult bool   `toml:"printResult"`
	MaxPrint    int    `toml:"maxPrint"`
}

type Config struct {
	Accum   AccumOptions   `toml:"accum"`
	Spill   SpillOptions   `toml:"spill"`
	Gen     GenOptions     `toml:"gen"`
	Parquet ParquetOptions `toml:"parquet"`
	Debug   DebugOptions   `toml:"debug"`
}

// DefaultConfig mirrors etc/vecagg.toml.
func DefaultConfig() *Config {
	return &Config{
		Accum: AccumOptions{
			ChunkCapacity: 4096,
			MemoryLimit:   256 << 20,
			Layout: LayoutOptions{
				IndexShift:     0,
				IndexBits:      24,
				PartitionShift: 24,
				PartitionBits:  8,
				OrdinalShift:   32,
				OrdinalBits:    31,
			},
		},
		Spill: SpillOptions{
			Dir:        "",
			Partitions: 8,
			Compress:   true,
		},
		Gen: GenOptions{
			Rows:      1 << 20,
			Groups:    1 << 12,
			BatchSize: DefaultVectorSize,
			NullRatio: 0.1,
			Seed:      1,
			Fragments: 1,
		},
		Debug: DebugOptions{
			LogLevel: "info",
			MaxPrint: 20,
		},
	}
}

// LoadConfig decodes a toml file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		Warn("unknown config key ignored",
			zap.String("fpath", path),
			zap.String("key", key.String()))
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	capa := cfg.Accum.ChunkCapacity
	if capa < 64 || !IsPowerOfTwo(uint64(capa)) {
		return fmt.Errorf("accum.chunkCapacity %d must be a power of two >= 64", capa)
	}
	if cfg.Spill.Partitions < 1 {
		return fmt.Errorf("spill.partitions %d must be >= 1", cfg.Spill.Partitions)
	}
	if cfg.Gen.BatchSize <= 0 {
		return fmt.Errorf("gen.batchSize %d must be > 0", cfg.Gen.BatchSize)
	}
	if cfg.Gen.NullRatio < 0 || cfg.Gen.NullRatio > 1 {
		return fmt.Errorf("gen.nullRatio %v out of [0,1]", cfg.Gen.NullRatio)
	}
	return nil
}
