package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
	"sort"
)

// StateDigest hashes the full authoritative state in a canonical order:
// day, market prices, demand, stores (sorted by id, fields in fixed order),
// then pending orders sorted by id. Two engines with equal digests have
// byte-equal state.
func (e *Engine) StateDigest() string {
	h := sha256.New()
	writeInt(h, int64(e.day))
	writeInt(h, e.seed)

	writeFloatMap(h, e.prices.Snapshot())
	writeFloatMap(h, e.demand.Snapshot())

	for _, id := range e.storeIDs {
		s := e.stores[id]
		writeString(h, s.ID)
		writeFloat(h, s.Cash)
		writeInt(h, int64(s.Reputation))
		writeInt(h, int64(s.Level))
		writeInt(h, int64(s.XP))
		writeInt(h, int64(s.Cashiers))
		writeInt(h, int64(s.Restockers))
		writeIntMap(h, s.Inventory)
		writeFloatMap(h, s.Prices)
		for _, u := range s.Upgrades {
			writeString(h, u)
		}
	}

	for _, o := range e.book.Pending() {
		writeInt(h, int64(o.ID))
		writeString(h, o.StoreID)
		writeString(h, o.ItemID)
		writeString(h, o.VendorID)
		writeInt(h, int64(o.Quantity))
		writeFloat(h, o.UnitPrice)
		writeInt(h, int64(o.ArrivalDay))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

func writeFloat(h hash.Hash, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	h.Write(buf[:])
}

func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	h.Write([]byte(s))
}

func writeFloatMap(h hash.Hash, m map[string]float64) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	writeInt(h, int64(len(ids)))
	for _, id := range ids {
		writeString(h, id)
		writeFloat(h, m[id])
	}
}

func writeIntMap(h hash.Hash, m map[string]int) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	writeInt(h, int64(len(ids)))
	for _, id := range ids {
		writeString(h, id)
		writeInt(h, int64(m[id]))
	}
}
