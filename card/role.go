package card

// Role is one of the five court roles.
type Role byte

const (
	RoleInvalid Role = iota
	RoleDuke
	RoleAssassin
	RoleCaptain
	RoleAmbassador
	RoleContessa
)

// Roles lists every role in canonical order.
var Roles = []Role{RoleDuke, RoleAssassin, RoleCaptain, RoleAmbassador, RoleContessa}

// CopiesPerRole is the number of instances of each role in a deck.
const CopiesPerRole = 3

// DeckSize is the total card count: 3 copies of each of 5 roles.
const DeckSize = CopiesPerRole * 5

var roleNames = map[Role]string{
	RoleDuke:       "Duke",
	RoleAssassin:   "Assassin",
	RoleCaptain:    "Captain",
	RoleAmbassador: "Ambassador",
	RoleContessa:   "Contessa",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Invalid"
}

// Valid reports whether r is one of the five playable roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole converts a role name to its Role value.
func ParseRole(name string) (Role, bool) {
	for r, n := range roleNames {
		if n == name {
			return r, true
		}
	}
	return RoleInvalid, false
}
