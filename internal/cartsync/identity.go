package cartsync

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	userIDPrefix    = "user_"
	localItemPrefix = "local-"
	base36Alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	userIDSuffixLen = 9
)

// IDGenerator mints session identities.
type IDGenerator interface {
	UserID(now time.Time) string
	LocalItemID() string
}

type randomIDs struct{}

// UserID returns user_<unix millis>_<9 base36 chars>.
func (randomIDs) UserID(now time.Time) string {
	suffix := make([]byte, userIDSuffixLen)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Alphabet))))
		if err != nil {
			suffix[i] = base36Alphabet[0]
			continue
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}
	return userIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}

func (randomIDs) LocalItemID() string {
	return localItemPrefix + uuid.NewString()
}

// IsLocalItemID reports whether id was minted locally rather than by the remote store.
func IsLocalItemID(id string) bool {
	return len(id) > len(localItemPrefix) && id[:len(localItemPrefix)] == localItemPrefix
}
