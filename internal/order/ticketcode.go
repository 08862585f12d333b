package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CodeFunc returns a candidate redemption code for the seq-th ticket of an
// order.  Candidates may collide; the engine retries on a unique clash.
type CodeFunc func(orderID uint64, seq int) (string, error)

// NewTicketCode builds codes of the form
//
//	TKT-{orderID}-{seq}-{8 random hex}-{base36 unix millis}
//
// upper-cased.  The random part comes from crypto/rand.
func NewTicketCode(orderID uint64, seq int) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := fmt.Sprintf("TKT-%d-%d-%s-%s", orderID, seq,
		hex.EncodeToString(buf), strconv.FormatInt(time.Now().UnixMilli(), 36))
	return strings.ToUpper(code), nil
}
