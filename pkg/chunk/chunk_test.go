package chunk

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/util"
)

func Test_vectorValues(t *testing.T) {
	typs := []common.LType{
		common.IntegerType(),
		common.BigintType(),
		common.FloatType(),
		common.DoubleType(),
		common.BooleanType(),
		common.DecimalType(18, 2),
		common.IntervalType(),
	}
	vals := []*Value{
		{I64: -7},
		{I64: 1 << 40},
		{F64: 1.5},
		{F64: -2.25},
		{Bool: true},
		{Hugeint: common.HugeintFromInt64(-12345)},
		{Interval: common.IntervalDay{Days: 3, Millis: -9}},
	}
	for i, typ := range typs {
		vec := NewFlatVector(typ, 16)
		val := vals[i]
		val.Typ = typ
		vec.SetValue(5, val)
		vec.SetValue(6, NullValue(typ))
		got := vec.GetValue(5)
		assert.True(t, got.Equal(val), "%v: %v != %v", typ, got, val)
		assert.True(t, vec.IsNull(6))
		assert.False(t, vec.IsNull(7))
	}
}

func Test_boolVectorPacked(t *testing.T) {
	vec := NewFlatVector(common.BooleanType(), 64)
	require.Len(t, vec.Data, 8)
	vec.SetBool(9, true)
	vec.SetBool(10, true)
	vec.SetBool(10, false)
	assert.Equal(t, uint8(0x02), vec.Data[1])
	assert.True(t, vec.GetBool(9))
	assert.False(t, vec.GetBool(10))
}

func Test_vectorFromRegions(t *testing.T) {
	data := make([]byte, 8*4)
	validity := []byte{0x05}
	vec := NewVectorFrom(common.IntegerType(), 8, data, validity)
	GetSlice[int32](vec)[2] = 42
	assert.Equal(t, int64(42), vec.GetValue(2).I64)
	assert.True(t, vec.IsNull(1))
	assert.Equal(t, byte(42), data[8])
}

func Test_chunkSerialize(t *testing.T) {
	c := &Chunk{}
	c.Init([]common.LType{common.BigintType(), common.DoubleType()}, 8)
	c.SetCard(5)
	for i := 0; i < 5; i++ {
		c.Data[0].SetValue(i, &Value{Typ: common.BigintType(), I64: int64(i * 10)})
		if i == 3 {
			c.Data[1].SetValue(i, NullValue(common.DoubleType()))
		} else {
			c.Data[1].SetValue(i, &Value{Typ: common.DoubleType(), F64: float64(i) / 2})
		}
	}
	buf := &util.BufferSerialize{}
	require.NoError(t, c.Serialize(buf))

	got := &Chunk{}
	require.NoError(t, got.Deserialize(buf))
	require.Equal(t, 5, got.Card())
	require.Equal(t, c.Types(), got.Types())
	for i := 0; i < 5; i++ {
		for j := 0; j < 2; j++ {
			assert.True(t, c.Data[j].GetValue(i).Equal(got.Data[j].GetValue(i)))
		}
	}
	err := got.Deserialize(buf)
	assert.True(t, errors.Is(err, io.EOF))
}
