package main

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	pqLocal "github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	pqReader "github.com/xitongsys/parquet-go/reader"

	"github.com/daviszhen/vecagg/pkg/accum"
	"github.com/daviszhen/vecagg/pkg/chunk"
	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/hashagg"
	"github.com/daviszhen/vecagg/pkg/util"
)

//parquet cmd

var parquetInfo = "aggregate columns of a parquet file grouped by an integer column"
var parquetCmd = &cobra.Command{
	Use:   "parquet",
	Short: parquetInfo,
	Long:  parquetInfo,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initParquetCfg(); err != nil {
			return err
		}
		return runParquet(testerCfg)
	},
}

func initParquetCfg() error {
	testerCfg.Parquet.Path = viper.GetString("parquet.path")
	testerCfg.Parquet.KeyColumn = viper.GetInt("parquet.keyColumn")
	testerCfg.Parquet.ValueColumns = viper.GetIntSlice("parquet.valueColumns")
	testerCfg.Parquet.Aggregates = viper.GetStringSlice("parquet.aggregates")
	if len(testerCfg.Parquet.ValueColumns) != len(testerCfg.Parquet.Aggregates) {
		return fmt.Errorf("%d value columns for %d aggregates",
			len(testerCfg.Parquet.ValueColumns), len(testerCfg.Parquet.Aggregates))
	}
	return initCommonOptions()
}

func initParquetCmd() {
	RootCmd.AddCommand(parquetCmd)
	parquetCmd.Flags().String("path", "", "parquet file path")
	parquetCmd.Flags().Int("key_column", 0, "leaf column index of the group key")
	parquetCmd.Flags().IntSlice("value_columns", nil, "leaf column index per aggregate, ignored by count1")
	parquetCmd.Flags().StringSlice("aggregates", nil, "count1, count, sum, min or max per value column")

	viper.BindPFlag("parquet.path", parquetCmd.Flags().Lookup("path"))
	viper.BindPFlag("parquet.keyColumn", parquetCmd.Flags().Lookup("key_column"))
	viper.BindPFlag("parquet.valueColumns", parquetCmd.Flags().Lookup("value_columns"))
	viper.BindPFlag("parquet.aggregates", parquetCmd.Flags().Lookup("aggregates"))
}

// columnType maps the parquet schema of a leaf column onto a logical type.
func columnType(rd *pqReader.ParquetReader, idx int) (common.LType, error) {
	handler := rd.SchemaHandler
	if idx < 0 || idx >= len(handler.ValueColumns) {
		return common.LType{}, fmt.Errorf("no leaf column %d, file has %d", idx, len(handler.ValueColumns))
	}
	elem := handler.SchemaElements[handler.MapIndex[handler.ValueColumns[idx]]]
	if elem.IsSetConvertedType() {
		switch elem.GetConvertedType() {
		case parquet.ConvertedType_DECIMAL:
			if elem.GetType() == parquet.Type_INT32 || elem.GetType() == parquet.Type_INT64 {
				return common.DecimalType(int(elem.GetPrecision()), int(elem.GetScale())), nil
			}
			return common.LType{}, fmt.Errorf("column %d: decimal stored as %v", idx, elem.GetType())
		case parquet.ConvertedType_INTERVAL:
			return common.IntervalType(), nil
		}
	}
	switch elem.GetType() {
	case parquet.Type_BOOLEAN:
		return common.BooleanType(), nil
	case parquet.Type_INT32:
		return common.IntegerType(), nil
	case parquet.Type_INT64:
		return common.BigintType(), nil
	case parquet.Type_FLOAT:
		return common.FloatType(), nil
	case parquet.Type_DOUBLE:
		return common.DoubleType(), nil
	default:
		return common.LType{}, fmt.Errorf("column %d: unsupported parquet type %v", idx, elem.GetType())
	}
}

func parquetColToValue(field any, lTyp common.LType) (*chunk.Value, error) {
	if field == nil {
		return chunk.NullValue(lTyp), nil
	}
	val := &chunk.Value{Typ: lTyp}
	switch lTyp.Id {
	case common.LTID_INTEGER, common.LTID_BIGINT, common.LTID_DECIMAL:
		var v int64
		switch fVal := field.(type) {
		case int32:
			v = int64(fVal)
		case int64:
			v = fVal
		default:
			return nil, fmt.Errorf("%T is not an integer", field)
		}
		if lTyp.IsDecimal() {
			val.Hugeint = common.HugeintFromInt64(v)
		} else {
			val.I64 = v
		}
	case common.LTID_FLOAT:
		fVal, ok := field.(float32)
		if !ok {
			return nil, fmt.Errorf("%T is not a float", field)
		}
		val.F64 = float64(fVal)
	case common.LTID_DOUBLE:
		fVal, ok := field.(float64)
		if !ok {
			return nil, fmt.Errorf("%T is not a double", field)
		}
		val.F64 = fVal
	case common.LTID_BOOLEAN:
		fVal, ok := field.(bool)
		if !ok {
			return nil, fmt.Errorf("%T is not a boolean", field)
		}
		val.Bool = fVal
	case common.LTID_INTERVAL:
		// months, days, millis as little endian uint32
		fVal, ok := field.(string)
		if !ok || len(fVal) != 12 {
			return nil, fmt.Errorf("%T is not a 12 byte interval", field)
		}
		raw := []byte(fVal)
		months := int32(binary.LittleEndian.Uint32(raw[0:]))
		val.Interval.Days = months*30 + int32(binary.LittleEndian.Uint32(raw[4:]))
		val.Interval.Millis = int32(binary.LittleEndian.Uint32(raw[8:]))
	default:
		return nil, fmt.Errorf("usp parquet value of %v", lTyp)
	}
	return val, nil
}

// parquetInput reads one batch of leaf columns. A column referenced twice
// is read once per batch.
type parquetInput struct {
	rd     *pqReader.ParquetReader
	cached map[int][]any
}

func (in *parquetInput) column(idx int, num int64) ([]any, error) {
	if values, has := in.cached[idx]; has {
		return values, nil
	}
	values, _, _, err := in.rd.ReadColumnByIndex(int64(idx), num)
	if err != nil {
		return nil, fmt.Errorf("read column %d: %w", idx, err)
	}
	in.cached[idx] = values
	return values, nil
}

func (in *parquetInput) fill(vec *chunk.Vector, idx int, num int64) (int, error) {
	values, err := in.column(idx, num)
	if err != nil {
		return 0, err
	}
	for i, field := range values {
		val, err := parquetColToValue(field, vec.Typ())
		if err != nil {
			return 0, fmt.Errorf("column %d row %d: %w", idx, i, err)
		}
		vec.SetValue(i, val)
	}
	return len(values), nil
}

func runParquet(cfg *util.Config) error {
	pqCfg := cfg.Parquet
	file, err := pqLocal.NewLocalFileReader(pqCfg.Path)
	if err != nil {
		return err
	}
	defer file.Close()
	rd, err := pqReader.NewParquetColumnReader(file, 1)
	if err != nil {
		return err
	}
	defer rd.ReadStop()

	keyTyp, err := columnType(rd, pqCfg.KeyColumn)
	if err != nil {
		return err
	}
	if keyTyp.Id != common.LTID_INTEGER && keyTyp.Id != common.LTID_BIGINT {
		return fmt.Errorf("key column %d is %v, want an integer", pqCfg.KeyColumn, keyTyp)
	}
	aggs := make([]hashagg.Aggregate, len(pqCfg.Aggregates))
	for i, name := range pqCfg.Aggregates {
		kind, err := accum.ParseKind(name)
		if err != nil {
			return err
		}
		typ := common.BigintType()
		if kind != accum.Count1 {
			if typ, err = columnType(rd, pqCfg.ValueColumns[i]); err != nil {
				return err
			}
		}
		aggs[i] = hashagg.Aggregate{Kind: kind, Typ: typ}
	}

	alloc := util.NewBoundedAllocator("parquet", cfg.Accum.MemoryLimit)
	hagg, err := hashagg.New(hashagg.ConfigFrom(cfg, alloc), aggs)
	if err != nil {
		return err
	}
	defer hagg.Close()

	batch := int64(util.DefaultVectorSize)
	keys := chunk.NewFlatVector(common.BigintType(), int(batch))
	inputs := make([]*chunk.Vector, len(aggs))
	for i, agg := range aggs {
		if agg.Kind != accum.Count1 {
			inputs[i] = chunk.NewFlatVector(agg.Typ, int(batch))
		}
	}
	total := rd.GetNumRows()
	for read := int64(0); read < total; {
		num := min(batch, total-read)
		in := &parquetInput{rd: rd, cached: make(map[int][]any)}
		n, err := in.fill(keys, pqCfg.KeyColumn, num)
		if err != nil {
			return err
		}
		for i, input := range inputs {
			if input == nil {
				continue
			}
			cnt, err := in.fill(input, pqCfg.ValueColumns[i], num)
			if err != nil {
				return err
			}
			if cnt != n {
				return fmt.Errorf("column %d has %d values, key column has %d", pqCfg.ValueColumns[i], cnt, n)
			}
		}
		if n == 0 {
			break
		}
		if err = hagg.Consume(keys, inputs, n); err != nil {
			return err
		}
		read += int64(n)
	}

	printState(pqCfg.Path, hagg, cfg)
	results, err := hagg.Finish()
	if err != nil {
		return err
	}
	report(pqCfg.Path, hagg, alloc, results, cfg)
	return nil
}
