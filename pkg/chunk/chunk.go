package chunk

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/daviszhen/vecagg/pkg/common"
	"github.com/daviszhen/vecagg/pkg/util"
)

// Chunk is a batch of equally long columns.
type Chunk struct {
	Data  []*Vector
	Count int
	_Cap  int
}

func (c *Chunk) Init(types []common.LType, cap int) {
	c._Cap = cap
	c.Data = nil
	for _, lType := range types {
		c.Data = append(c.Data, NewFlatVector(lType, c._Cap))
	}
}

// NewChunkFrom assembles a chunk over existing vectors of at least count rows.
func NewChunkFrom(vecs []*Vector, count int) *Chunk {
	capa := count
	for i, vec := range vecs {
		if i == 0 || vec.Cap() < capa {
			capa = vec.Cap()
		}
	}
	util.AssertFunc(capa >= count)
	return &Chunk{Data: vecs, Count: count, _Cap: capa}
}

func (c *Chunk) Cap() int {
	return c._Cap
}

func (c *Chunk) SetCard(count int) {
	util.AssertFunc(count <= c._Cap)
	c.Count = count
}

func (c *Chunk) Card() int {
	return c.Count
}

func (c *Chunk) ColumnCount() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

func (c *Chunk) Types() []common.LType {
	ret := make([]common.LType, 0, c.ColumnCount())
	for _, vec := range c.Data {
		ret = append(ret, vec.Typ())
	}
	return ret
}

func (c *Chunk) Print(rowPrefix string, maxRows int) {
	rows := c.Card()
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	for i := 0; i < rows; i++ {
		fields := make([]zap.Field, 0, c.ColumnCount())
		for j := 0; j < c.ColumnCount(); j++ {
			fields = append(fields, zap.String("", c.Data[j].GetValue(i).String()))
		}
		util.Info(rowPrefix, fields...)
	}
}

func (c *Chunk) Serialize(serial util.Serialize) error {
	//save row count
	err := util.Write[uint32](uint32(c.Card()), serial)
	if err != nil {
		return err
	}
	//save column count
	err = util.Write[uint32](uint32(c.ColumnCount()), serial)
	if err != nil {
		return err
	}
	//save column types
	for i := 0; i < c.ColumnCount(); i++ {
		err = c.Data[i].Typ().Serialize(serial)
		if err != nil {
			return err
		}
	}
	//save column data
	for i := 0; i < c.ColumnCount(); i++ {
		err = c.Data[i].Serialize(c.Card(), serial)
		if err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads one chunk. A clean end of stream leaves the chunk empty
// and returns io.EOF.
func (c *Chunk) Deserialize(deserial util.Deserialize) error {
	//read row count
	rowCnt := uint32(0)
	err := util.Read[uint32](&rowCnt, deserial)
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.Data = nil
			c.Count = 0
			return io.EOF
		}
		return err
	}
	//read column count
	colCnt := uint32(0)
	err = util.Read[uint32](&colCnt, deserial)
	if err != nil {
		return err
	}
	//read column types
	typs := make([]common.LType, colCnt)
	for i := uint32(0); i < colCnt; i++ {
		typs[i], err = common.DeserializeLType(deserial)
		if err != nil {
			return err
		}
	}
	capa := max(int(rowCnt), util.DefaultVectorSize)
	c.Init(typs, capa)
	c.SetCard(int(rowCnt))
	//read column data
	for i := uint32(0); i < colCnt; i++ {
		err = c.Data[i].Deserialize(int(rowCnt), deserial)
		if err != nil {
			return err
		}
	}
	return nil
}
