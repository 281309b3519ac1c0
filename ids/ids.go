// Package ids generates the opaque, time-ordered business IDs used as
// primary keys: prefix + UTC millisecond timestamp + 3-digit random suffix,
// e.g. RS20250611142307123_042. Uniqueness is enforced by the primary key at
// write time; on a collision the caller regenerates and retries.
package ids

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

func newID(prefix string) string {
	ts := strings.Replace(time.Now().UTC().Format("20060102150405.000"), ".", "", 1)
	return fmt.Sprintf("%s%s_%03d", prefix, ts, rand.IntN(1000))
}

func NewWorkstationID() string   { return newID("WS") }
func NewEquipmentID() string     { return newID("EQ") }
func NewReservationID() string   { return newID("RS") }
func NewRotationEntryID() string { return newID("RT") }
