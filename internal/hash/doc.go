// Package hash provides fast, hardware-accelerated hashing utilities.
//
// # CRC32-Castagnoli (CRC32C)
//
// Partition routing uses CRC32-Castagnoli (CRC32C) which provides:
//
//   - Hardware acceleration on x86 (SSE4.2) and ARM (CRC extension)
//   - A stable, platform-independent mapping: the same ID hashes to the
//     same value regardless of process, architecture, or runtime, which
//     is what lets independent writers route without coordination
//   - Industry standard (iSCSI, Btrfs, RocksDB, LevelDB)
//
// # Usage
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
