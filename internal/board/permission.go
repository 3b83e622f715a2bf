package board

// Level is a room capability tier. Levels are totally ordered:
// none < view < edit < admin.
type Level int

const (
	LevelNone Level = iota
	LevelView
	LevelEdit
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelView:
		return "view"
	case LevelEdit:
		return "edit"
	case LevelAdmin:
		return "admin"
	default:
		return "none"
	}
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// AtLeast reports whether l satisfies the required tier.
func (l Level) AtLeast(required Level) bool { return l >= required }

// CanEdit is the gate for draw/shape/text/clear/undo/redo events.
func (l Level) CanEdit() bool { return l.AtLeast(LevelEdit) }

// ParseLevel maps a wire/db string onto a Level. Unknown strings map to
// LevelNone so that a bad stored value never widens access.
func ParseLevel(s string) Level {
	switch s {
	case "view":
		return LevelView
	case "edit":
		return LevelEdit
	case "admin":
		return LevelAdmin
	default:
		return LevelNone
	}
}

// ConnectFacts carries everything the permission resolver needs about a
// connection attempt. The room and participant lookups happen against the
// relational store before the per-room critical section is entered, so the
// resolver itself never blocks on I/O.
type ConnectFacts struct {
	Authenticated bool
	PrincipalID   string // authenticated user id, "" when anonymous

	IsPublic  bool
	CreatorID string // "" when the room has no creator

	HasParticipant   bool
	ParticipantLevel Level

	// Requested is the anonymous-sharing override from the connection
	// parameters. Only view and edit are honored; anything else must be
	// mapped to LevelNone by the caller.
	Requested Level
}
