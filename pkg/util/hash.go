package util

import (
	"encoding/binary"
)

const (
	murmurM    uint64 = 0xc6a4a7935bd1e995
	murmurSeed uint64 = 0xe17a1465
	murmurR           = 47
)

// Murmur64 is MurmurHash64A of data.
func Murmur64(data []byte) uint64 {
	h := murmurSeed ^ (uint64(len(data)) * murmurM)
	for len(data) >= 8 {
		k := binary.LittleEndian.Uint64(data)
		k *= murmurM
		k ^= k >> murmurR
		k *= murmurM

		h ^= k
		h *= murmurM
		data = data[8:]
	}
	if len(data) > 0 {
		for i, b := range data {
			h ^= uint64(b) << (8 * i)
		}
		h *= murmurM
	}
	h ^= h >> murmurR
	h *= murmurM
	h ^= h >> murmurR
	return h
}

// HashInt64 hashes one group key. Used to pick a spill partition.
func HashInt64(key int64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	return Murmur64(buf[:])
}

func ChecksumU64(x uint64) uint64 {
	return x * 0xbf58476d1ce4e5b9
}

// ChecksumBytes checksums a byte region, zero for an empty one.
func ChecksumBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	result := uint64(5381)
	for len(data) >= 8 {
		result ^= ChecksumU64(binary.LittleEndian.Uint64(data))
		data = data[8:]
	}
	if len(data) > 0 {
		result ^= Murmur64(data)
	}
	return result
}
