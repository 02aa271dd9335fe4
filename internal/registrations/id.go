package registrations

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	// KeyPrefix starts every registration key.
	KeyPrefix = "medium_"
	// EmailIndexPrefix starts every email index key.
	EmailIndexPrefix = "medium_email_"

	idSuffixLen = 9
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewID returns medium_<unix millis>_<9 base36 chars>.
func NewID(now time.Time) (string, error) {
	var sb strings.Builder
	sb.WriteString(KeyPrefix)
	sb.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	sb.WriteByte('_')
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < idSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36[n.Int64()])
	}
	return sb.String(), nil
}

// EmailIndexKey returns the index key for an address (case-insensitive).
func EmailIndexKey(email string) string {
	return EmailIndexPrefix + strings.ToLower(email)
}
