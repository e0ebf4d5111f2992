package main

import (
	"fmt"
	"math/rand"

	clone "github.com/huandu/go-clone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/daviszhen/vecagg/pkg/accum"
	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/hashagg"
	"github.com/daviszhen/vecagg/pkg/util"
)

//gen cmd

var genInfo = "aggregate synthetic rows"
var genCmd = &cobra.Command{
	Use:   "gen",
	Short: genInfo,
	Long:  genInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initGenCfg(); err != nil {
			return err
		}
		return runGen(testerCfg)
	},
}

func initGenCfg() error {
	testerCfg.Gen.Rows = viper.GetInt("gen.rows")
	testerCfg.Gen.Groups = viper.GetInt("gen.groups")
	testerCfg.Gen.BatchSize = viper.GetInt("gen.batchSize")
	testerCfg.Gen.NullRatio = viper.GetFloat64("gen.nullRatio")
	testerCfg.Gen.Seed = viper.GetInt64("gen.seed")
	testerCfg.Gen.Fragments = viper.GetInt("gen.fragments")
	if testerCfg.Gen.Groups < 1 || testerCfg.Gen.Fragments < 1 {
		return fmt.Errorf("gen.groups %d and gen.fragments %d must be >= 1",
			testerCfg.Gen.Groups, testerCfg.Gen.Fragments)
	}
	return initCommonOptions()
}

func initGenCmd() {
	RootCmd.AddCommand(genCmd)
	genCmd.Flags().Int("rows", testerCfg.Gen.Rows, "rows per fragment")
	genCmd.Flags().Int("groups", testerCfg.Gen.Groups, "distinct keys")
	genCmd.Flags().Int("batch_size", testerCfg.Gen.BatchSize, "rows per batch")
	genCmd.Flags().Float64("null_ratio", testerCfg.Gen.NullRatio, "share of null keys and values")
	genCmd.Flags().Int64("seed", testerCfg.Gen.Seed, "random seed of fragment 0")
	genCmd.Flags().Int("fragments", testerCfg.Gen.Fragments, "independent aggregations run in parallel")

	viper.BindPFlag("gen.rows", genCmd.Flags().Lookup("rows"))
	viper.BindPFlag("gen.groups", genCmd.Flags().Lookup("groups"))
	viper.BindPFlag("gen.batchSize", genCmd.Flags().Lookup("batch_size"))
	viper.BindPFlag("gen.nullRatio", genCmd.Flags().Lookup("null_ratio"))
	viper.BindPFlag("gen.seed", genCmd.Flags().Lookup("seed"))
	viper.BindPFlag("gen.fragments", genCmd.Flags().Lookup("fragments"))
}

// genAggregates covers every accumulator family once.
func genAggregates() []hashagg.Aggregate {
	return []hashagg.Aggregate{
		{Kind: accum.Count1, Typ: common.BigintType()},
		{Kind: accum.CountColumn, Typ: common.IntegerType()},
		{Kind: accum.Sum, Typ: common.IntegerType()},
		{Kind: accum.Max, Typ: common.BigintType()},
		{Kind: accum.Min, Typ: common.FloatType()},
		{Kind: accum.Max, Typ: common.DoubleType()},
		{Kind: accum.Max, Typ: common.DecimalType(18, 2)},
		{Kind: accum.Min, Typ: common.IntervalType()},
		{Kind: accum.Max, Typ: common.BooleanType()},
		{Kind: accum.Min, Typ: common.BooleanType()},
	}
}

func runGen(cfg *util.Config) error {
	aggs := genAggregates()
	grp := errgroup.Group{}
	for f := 0; f < cfg.Gen.Fragments; f++ {
		fragCfg := clone.Clone(cfg).(*util.Config)
		fragCfg.Gen.Seed += int64(f)
		grp.Go(func() error {
			return runFragment(f, fragCfg, aggs)
		})
	}
	return grp.Wait()
}

func runFragment(id int, cfg *util.Config, aggs []hashagg.Aggregate) error {
	name := fmt.Sprintf("fragment%d", id)
	alloc := util.NewBoundedAllocator(name, cfg.Accum.MemoryLimit)
	hagg, err := hashagg.New(hashagg.ConfigFrom(cfg, alloc), aggs)
	if err != nil {
		return err
	}
	defer hagg.Close()

	r := rand.New(rand.NewSource(cfg.Gen.Seed))
	batch := cfg.Gen.BatchSize
	keys := chunk.NewFlatVector(common.BigintType(), batch)
	inputs := make([]*chunk.Vector, len(aggs))
	for i, agg := range aggs {
		if agg.Kind != accum.Count1 {
			inputs[i] = chunk.NewFlatVector(agg.Typ, batch)
		}
	}

	for done := 0; done < cfg.Gen.Rows; {
		n := min(batch, cfg.Gen.Rows-done)
		for row := 0; row < n; row++ {
			key := &chunk.Value{Typ: common.BigintType(), I64: r.Int63n(int64(cfg.Gen.Groups))}
			key.IsNull = r.Float64() < cfg.Gen.NullRatio
			keys.SetValue(row, key)
			for _, input := range inputs {
				if input != nil {
					input.SetValue(row, randValue(r, input.Typ(), cfg.Gen.NullRatio))
				}
			}
		}
		if err = hagg.Consume(keys, inputs, n); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		done += n
	}

	printState(name, hagg, cfg)
	results, err := hagg.Finish()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	report(name, hagg, alloc, results, cfg)
	return nil
}

func randValue(r *rand.Rand, typ common.LType, nullRatio float64) *chunk.Value {
	if r.Float64() < nullRatio {
		return chunk.NullValue(typ)
	}
	val := &chunk.Value{Typ: typ}
	switch typ.Id {
	case common.LTID_INTEGER:
		val.I64 = int64(r.Int31n(1<<20)) - 1<<19
	case common.LTID_BIGINT:
		val.I64 = r.Int63() - 1<<62
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		val.F64 = r.NormFloat64() * 1000
	case common.LTID_BOOLEAN:
		val.Bool = r.Intn(2) == 1
	case common.LTID_DECIMAL:
		val.Hugeint = common.HugeintFromInt64(r.Int63n(1_000_000_000) - 500_000_000)
	case common.LTID_INTERVAL:
		val.Interval = common.IntervalDay{Days: r.Int31n(3650), Millis: r.Int31n(86_400_000)}
	default:
		panic(fmt.Sprintf("usp random %v", typ))
	}
	return val
}
