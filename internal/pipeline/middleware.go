package pipeline

import (
	"github.com/IshaanNene/cafepulse/internal/types"
)

// RequireNickname drops rows with an empty display name. Whitespace-only
// names are kept.
type RequireNickname struct{}

func (m *RequireNickname) Name() string { return "require_nickname" }

func (m *RequireNickname) Process(row *types.RankingRow) (*types.RankingRow, error) {
	if row.NickName == "" {
		return nil, nil
	}
	return row, nil
}

// BlockedNames drops rows whose display name exactly matches a blocked name.
// Names are compared byte for byte, without trimming.
type BlockedNames struct {
	names map[string]struct{}
}

func NewBlockedNames(names []string) *BlockedNames {
	return &BlockedNames{names: toSet(names)}
}

func (m *BlockedNames) Name() string { return "blocked_names" }

func (m *BlockedNames) Process(row *types.RankingRow) (*types.RankingRow, error) {
	if _, blocked := m.names[row.NickName]; blocked {
		return nil, nil
	}
	return row, nil
}

// BlockedLevels drops rows whose member level label is blocked, such as
// partner business accounts.
type BlockedLevels struct {
	levels map[string]struct{}
}

func NewBlockedLevels(levels []string) *BlockedLevels {
	return &BlockedLevels{levels: toSet(levels)}
}

func (m *BlockedLevels) Name() string { return "blocked_levels" }

func (m *BlockedLevels) Process(row *types.RankingRow) (*types.RankingRow, error) {
	if _, blocked := m.levels[row.MemberLevel]; blocked {
		return nil, nil
	}
	return row, nil
}

// toSet keeps values verbatim; empty entries are ignored.
func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
