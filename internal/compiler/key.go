package compiler

import (
	"github.com/vmihailenco/msgpack/v5"

	"flyc/internal/overload"
	"flyc/internal/types"
)

// specKey is the canonical identity of a specialization. Argument types
// are spelled out so keys stay readable in traces and dumps.
type specKey struct {
	Name  string   `msgpack:"n"`
	Index int      `msgpack:"i"`
	Args  []string `msgpack:"a"`
}

func (s *Session) keyOf(o *overload.Overload, args []types.TypeID) (string, error) {
	blob, err := msgpack.Marshal(&specKey{Name: o.Name, Index: o.Index(), Args: s.Types.Strings(args)})
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

// decodeKey is used by dumps to show what a cache entry stands for.
func decodeKey(k string) (specKey, error) {
	var out specKey
	err := msgpack.Unmarshal([]byte(k), &out)
	return out, err
}
