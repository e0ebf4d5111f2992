package chunk

import (
	"github.com/daviszhen/vecagg/pkg/util"
)

// Serialize writes the first count rows: a validity flag, the validity
// bits when some row is null, then the value region.
func (vec *Vector) Serialize(count int, serial util.Serialize) error {
	writeValidity := count > 0 && vec.Mask.CountValid(count) != count
	err := util.Write[bool](writeValidity, serial)
	if err != nil {
		return err
	}
	if writeValidity {
		err = serial.WriteData(vec.Mask.Data(), vec.Mask.Bytes(count))
		if err != nil {
			return err
		}
	}
	writeSize := vec.Typ().PTyp.DataBytes(count)
	return serial.WriteData(vec.Data, writeSize)
}

func (vec *Vector) Deserialize(count int, deserial util.Deserialize) error {
	util.AssertFunc(count <= vec.Cap())
	hasMask := false
	err := util.Read[bool](&hasMask, deserial)
	if err != nil {
		return err
	}
	vec.Mask.Init(vec.Cap())
	if hasMask {
		err = deserial.ReadData(vec.Mask.Data(), vec.Mask.Bytes(count))
		if err != nil {
			return err
		}
	}
	readSize := vec.Typ().PTyp.DataBytes(count)
	return deserial.ReadData(vec.Data, readSize)
}
