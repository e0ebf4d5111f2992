package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/daviszhen/vecagg/pkg/hashagg"
	"github.com/daviszhen/vecagg/pkg/util"
)

func printState(name string, hagg *hashagg.HashAgg, cfg *util.Config) {
	if !cfg.Debug.PrintState {
		return
	}
	util.Info("state before finish", zap.String("run", name))
	fmt.Println(hagg.Format())
}

func report(name string, hagg *hashagg.HashAgg, alloc *util.BoundedAllocator, results []*hashagg.Result, cfg *util.Config) {
	stats := hagg.Stats()
	groups := 0
	for _, res := range results {
		groups += res.Groups
	}
	util.Info("aggregation done",
		zap.String("run", name),
		zap.Int("rows", stats.Rows),
		zap.Int("groups", groups),
		zap.Int("spills", stats.Spills),
		zap.Int("spillGroups", stats.SpillGroups),
		zap.Int("merged", stats.Merged),
		zap.Int64("peakBytes", alloc.Peak()),
		zap.Int64("limitBytes", alloc.Limit()))
	if !cfg.Debug.PrintResult {
		return
	}
	left := cfg.Debug.MaxPrint
	for _, res := range results {
		for i, chk := range res.Chunks {
			if left <= 0 {
				return
			}
			n := min(left, chk.Card())
			chk.Print(fmt.Sprintf("%s p%d c%d", name, res.Partition, i), n)
			left -= n
		}
	}
}
