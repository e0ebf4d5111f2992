package common

import "fmt"

type LTypeId int

const (
	LTID_INVALID  LTypeId = 0
	LTID_NULL     LTypeId = 1
	LTID_BOOLEAN  LTypeId = 10
	LTID_INTEGER  LTypeId = 13
	LTID_BIGINT   LTypeId = 14
	LTID_DECIMAL  LTypeId = 21
	LTID_FLOAT    LTypeId = 22
	LTID_DOUBLE   LTypeId = 23
	LTID_INTERVAL LTypeId = 27
)

var lTypeIdToStr = map[LTypeId]string{
	LTID_INVALID:  "LTID_INVALID",
	LTID_NULL:     "LTID_NULL",
	LTID_BOOLEAN:  "LTID_BOOLEAN",
	LTID_INTEGER:  "LTID_INTEGER",
	LTID_BIGINT:   "LTID_BIGINT",
	LTID_DECIMAL:  "LTID_DECIMAL",
	LTID_FLOAT:    "LTID_FLOAT",
	LTID_DOUBLE:   "LTID_DOUBLE",
	LTID_INTERVAL: "LTID_INTERVAL",
}

var lTypeNameToId = map[string]LTypeId{
	"boolean":  LTID_BOOLEAN,
	"bool":     LTID_BOOLEAN,
	"int":      LTID_INTEGER,
	"integer":  LTID_INTEGER,
	"bigint":   LTID_BIGINT,
	"decimal":  LTID_DECIMAL,
	"float":    LTID_FLOAT,
	"double":   LTID_DOUBLE,
	"interval": LTID_INTERVAL,
}

func (id LTypeId) String() string {
	if s, has := lTypeIdToStr[id]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", id))
}

// ParseLTypeId maps a lower case type name to its id.
func ParseLTypeId(name string) (LTypeId, error) {
	if id, has := lTypeNameToId[name]; has {
		return id, nil
	}
	return LTID_INVALID, fmt.Errorf("unknown type name %q", name)
}
