package ranking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/IshaanNene/cafepulse/internal/types"
)

// statDocument is the envelope the statistics endpoint renders. Only the
// path result.statData[0].data.rows is read.
type statDocument struct {
	Result *struct {
		StatData []struct {
			Data *struct {
				Rows json.RawMessage `json:"rows"`
			} `json:"data"`
		} `json:"statData"`
	} `json:"result"`
}

// Rows holds the parallel, index-aligned columns of a ranking. Element
// values stay raw until a row is built so one bad cell only costs its row.
type Rows struct {
	V           []json.RawMessage `json:"v"`
	Cnt         []json.RawMessage `json:"cnt"`
	Rank        []json.RawMessage `json:"rank"`
	MemberInfos []json.RawMessage `json:"memberInfos"`
}

type memberInfo struct {
	IDNo            flexID `json:"idNo"`
	NickName        string `json:"nickName"`
	UserID          string `json:"userId"`
	MemberLevelName string `json:"memberLevelName"`
}

// flexID accepts a member id encoded as either a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("member id %s: %w", b, err)
	}
	*f = flexID(n.String())
	return nil
}

// Decode validates the document shape and returns its ranking columns.
// A document without any stat data decodes to empty Rows.
func Decode(raw []byte) (*Rows, error) {
	var doc statDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrUnexpectedShape, err)
	}
	if doc.Result == nil {
		return nil, fmt.Errorf("%w: missing result", types.ErrUnexpectedShape)
	}
	if len(doc.Result.StatData) == 0 {
		return &Rows{}, nil
	}

	data := doc.Result.StatData[0].Data
	if data == nil || len(data.Rows) == 0 || bytes.Equal(data.Rows, []byte("null")) {
		return &Rows{}, nil
	}

	var rows Rows
	if err := json.Unmarshal(data.Rows, &rows); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", types.ErrUnexpectedShape, err)
	}
	return &rows, nil
}

// members indexes the first member-info group by id. The first record for
// an id wins; null records are ignored.
func (r *Rows) members() (map[string]*memberInfo, error) {
	index := make(map[string]*memberInfo)
	if len(r.MemberInfos) == 0 {
		return index, nil
	}

	var infos []*memberInfo
	if err := json.Unmarshal(r.MemberInfos[0], &infos); err != nil {
		return nil, fmt.Errorf("%w: memberInfos: %v", types.ErrUnexpectedShape, err)
	}
	for _, info := range infos {
		if info == nil {
			continue
		}
		if _, dup := index[string(info.IDNo)]; !dup {
			index[string(info.IDNo)] = info
		}
	}
	return index, nil
}

// intAt reads column[i] as an integer, or def when the column is shorter.
// Values below floor or outside the int range are errors.
func intAt(column []json.RawMessage, i, def, floor int) (int, error) {
	if i >= len(column) {
		return def, nil
	}
	cell := bytes.TrimSpace(column[i])
	if bytes.Equal(cell, []byte("null")) {
		return def, nil
	}

	var n json.Number
	if err := json.Unmarshal(cell, &n); err != nil {
		// Numbers rendered as strings.
		var s string
		if serr := json.Unmarshal(cell, &s); serr != nil {
			return 0, fmt.Errorf("not a number: %s", cell)
		}
		n = json.Number(strings.TrimSpace(s))
	}

	var v int
	if i64, err := n.Int64(); err == nil {
		if i64 < math.MinInt || i64 > math.MaxInt {
			return 0, fmt.Errorf("out of range: %s", cell)
		}
		v = int(i64)
	} else {
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not a number: %s", cell)
		}
		if f < float64(math.MinInt) || f >= float64(math.MaxInt) {
			return 0, fmt.Errorf("out of range: %s", cell)
		}
		v = int(f)
	}
	if v < floor {
		return 0, fmt.Errorf("%d below minimum %d", v, floor)
	}
	return v, nil
}
