// Package uid generates record identifiers. Ids must be UUID-shaped so a
// record created against the local store can later reuse the same primary
// key when its insert is replayed against the remote backend.
package uid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func New() string {
	id, err := uuid.NewRandom()
	if err != nil {
		// uuid.NewRandom only fails when the platform RNG does; a
		// timestamp id keeps the kiosk selling.
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", time.Now().UnixNano()%1e12)
	}
	return id.String()
}
