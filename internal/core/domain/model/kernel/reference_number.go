package kernel

import (
	"crypto/rand"
	"time"
)

const (
	OrderNumberPrefix    = "ORD"
	ShipmentNumberPrefix = "SHP"
	ReturnNumberPrefix   = "RMA"
)

const referenceAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewReferenceNumber returns a customer facing number such as
// ORD-20250314-7F3K2Q. Uniqueness is enforced by the unique index on the
// owning table; the random suffix keeps collisions rare.
func NewReferenceNumber(prefix string, now time.Time) string {
	suffix := make([]byte, 6)
	_, _ = rand.Read(suffix)
	for i, b := range suffix {
		suffix[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return prefix + "-" + now.UTC().Format("20060102") + "-" + string(suffix)
}
