package cos

import (
	"sync"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

const idABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var (
	sidOnce sync.Once
	sid     *shortid.Shortid
)

func sidGen() *shortid.Shortid {
	sidOnce.Do(func() {
		sid, _ = shortid.New(1, idABC, 1)
	})
	return sid
}

// GenName returns a short, human-scannable debug name for a source,
// sink, or connection, used only when Config.EnableNames is set - the
// fabric never parses or compares these names.
func GenName(prefix string) string {
	id, err := sidGen().Generate()
	if err != nil {
		return prefix
	}
	return prefix + "-" + id
}

// GenInstanceID returns a process-unique identifier for a packet pool
// (stats label and housekeeping key), a message queue (housekeeping key)
// or a single method call (log correlation) - distinct from GenName
// because it must be globally unique, not merely readable.
func GenInstanceID() string { return uuid.NewString() }
