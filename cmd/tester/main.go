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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.uber.org/zap"

	"github.com/daviszhen/vecagg/pkg/util"
)

func init() {
	cobra.OnInitialize(loadConfig)
	initRootFlags()
	initGenCmd()
	initParquetCmd()
}

var testerCfg = util.DefaultConfig()

///root cmd

var info = "drive the aggregation engine over synthetic or parquet input"
var RootCmd = &cobra.Command{
	Use:          "tester",
	Short:        info,
	Long:         info,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("use tester --help or -h")
	},
}

func initRootFlags() {
	flags := RootCmd.PersistentFlags()
	flags.String("log_level", testerCfg.Debug.LogLevel, "debug, info, warn or error")
	flags.Bool("print_state", false, "print the accumulator tree before finish")
	flags.Bool("print_result", false, "print the aggregated rows")
	flags.Int64("memory_limit", testerCfg.Accum.MemoryLimit, "bytes available to one fragment")
	flags.Int("partitions", testerCfg.Spill.Partitions, "spill partitions")
	flags.String("spill_dir", testerCfg.Spill.Dir, "directory of spill files")

	viper.BindPFlag("debug.logLevel", flags.Lookup("log_level"))
	viper.BindPFlag("debug.printState", flags.Lookup("print_state"))
	viper.BindPFlag("debug.printResult", flags.Lookup("print_result"))
	viper.BindPFlag("accum.memoryLimit", flags.Lookup("memory_limit"))
	viper.BindPFlag("spill.partitions", flags.Lookup("partitions"))
	viper.BindPFlag("spill.dir", flags.Lookup("spill_dir"))
}

func initCommonOptions() error {
	testerCfg.Accum.ChunkCapacity = viper.GetInt("accum.chunkCapacity")
	testerCfg.Accum.MemoryLimit = viper.GetInt64("accum.memoryLimit")
	testerCfg.Accum.Layout.IndexShift = viper.GetUint("accum.layout.indexShift")
	testerCfg.Accum.Layout.IndexBits = viper.GetUint("accum.layout.indexBits")
	testerCfg.Accum.Layout.PartitionShift = viper.GetUint("accum.layout.partitionShift")
	testerCfg.Accum.Layout.PartitionBits = viper.GetUint("accum.layout.partitionBits")
	testerCfg.Accum.Layout.OrdinalShift = viper.GetUint("accum.layout.ordinalShift")
	testerCfg.Accum.Layout.OrdinalBits = viper.GetUint("accum.layout.ordinalBits")
	testerCfg.Spill.Dir = viper.GetString("spill.dir")
	testerCfg.Spill.Partitions = viper.GetInt("spill.partitions")
	testerCfg.Spill.Compress = viper.GetBool("spill.compress")
	testerCfg.Debug.LogLevel = viper.GetString("debug.logLevel")
	testerCfg.Debug.PrintState = viper.GetBool("debug.printState")
	testerCfg.Debug.PrintResult = viper.GetBool("debug.printResult")
	testerCfg.Debug.MaxPrint = viper.GetInt("debug.maxPrint")
	util.InitLogger(testerCfg.Debug.LogLevel)
	return testerCfg.Validate()
}

// setDefaults seeds viper with the built in config so that a missing
// file or key keeps the default.
func setDefaults() {
	def := util.DefaultConfig()
	viper.SetDefault("accum.chunkCapacity", def.Accum.ChunkCapacity)
	viper.SetDefault("accum.memoryLimit", def.Accum.MemoryLimit)
	viper.SetDefault("accum.layout.indexShift", def.Accum.Layout.IndexShift)
	viper.SetDefault("accum.layout.indexBits", def.Accum.Layout.IndexBits)
	viper.SetDefault("accum.layout.partitionShift", def.Accum.Layout.PartitionShift)
	viper.SetDefault("accum.layout.partitionBits", def.Accum.Layout.PartitionBits)
	viper.SetDefault("accum.layout.ordinalShift", def.Accum.Layout.OrdinalShift)
	viper.SetDefault("accum.layout.ordinalBits", def.Accum.Layout.OrdinalBits)
	viper.SetDefault("spill.dir", def.Spill.Dir)
	viper.SetDefault("spill.partitions", def.Spill.Partitions)
	viper.SetDefault("spill.compress", def.Spill.Compress)
	viper.SetDefault("gen.rows", def.Gen.Rows)
	viper.SetDefault("gen.groups", def.Gen.Groups)
	viper.SetDefault("gen.batchSize", def.Gen.BatchSize)
	viper.SetDefault("gen.nullRatio", def.Gen.NullRatio)
	viper.SetDefault("gen.seed", def.Gen.Seed)
	viper.SetDefault("gen.fragments", def.Gen.Fragments)
	viper.SetDefault("debug.logLevel", def.Debug.LogLevel)
	viper.SetDefault("debug.maxPrint", def.Debug.MaxPrint)
}

var defCfgFilePaths = []string{".", "etc"}
var cfgFileName = "vecagg.toml"

func loadConfig() {
	setDefaults()
	for _, dirPath := range defCfgFilePaths {
		fpath := filepath.Join(dirPath, cfgFileName)
		if util.FileIsValid(fpath) {
			viper.SetConfigFile(fpath)
			err := viper.ReadInConfig()
			if err != nil {
				util.Error("viper load config file failed",
					zap.String("fpath", fpath),
					zap.Error(err))
				continue
			}
			return
		}
	}
	util.Warn("vecagg.toml does not exist, use the defaults")
}

func main() {
	defer util.Sync()
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
