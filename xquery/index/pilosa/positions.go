package pilosa

import (
	"encoding/binary"
	"sort"

	errors "gopkg.in/src-d/go-errors.v1"
)

var errCorruptedPositions = errors.NewKind("corrupted positions at byte %d")

// encodePositions sorts the positions and writes them as uvarint deltas.
func encodePositions(positions []uint64) []byte {
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })

	buf := make([]byte, 0, len(positions)*2)
	tmp := make([]byte, binary.MaxVarintLen64)
	var prev uint64
	for _, p := range positions {
		n := binary.PutUvarint(tmp, p-prev)
		buf = append(buf, tmp[:n]...)
		prev = p
	}
	return buf
}

func decodePositions(data []byte) ([]uint64, error) {
	var positions []uint64
	var prev uint64
	for i := 0; i < len(data); {
		delta, n := binary.Uvarint(data[i:])
		if n <= 0 {
			return nil, errCorruptedPositions.New(i)
		}
		prev += delta
		positions = append(positions, prev)
		i += n
	}
	return positions, nil
}
