package credits

import "strings"

// RoleDirectedBy is the credit group naming the movie's director(s). It is
// never recorded as a crew role.
const RoleDirectedBy = "Directed by"

const (
	seriesPrefix  = "Series "
	castRole      = "Cast"
	writingRole   = "Writing Credits"
	castPrefix    = castRole + " "
	writingPrefix = writingRole + " "
)

// NormalizeRole folds a credit group label into the controlled role
// vocabulary. Series roles lose their "Series " prefix (repeated prefixes
// included, so the mapping is idempotent), and every
// "Cast ..." / "Writing Credits ..." variant collapses to its root role.
// Case is preserved and unknown labels pass through unchanged.
//
//	"Series Cast verified as complete" -> "Cast"
//	"Writing Credits (WGA)"            -> "Writing Credits"
//	"Directed by"                      -> "Directed by"
func NormalizeRole(role string) string {
	for strings.HasPrefix(role, seriesPrefix) {
		role = role[len(seriesPrefix):]
	}

	switch {
	case strings.HasPrefix(role, castPrefix):
		return castRole
	case strings.HasPrefix(role, writingPrefix):
		return writingRole
	}
	return role
}
