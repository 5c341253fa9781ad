package ranking

import (
	"encoding/json"
	"fmt"

	"github.com/IshaanNene/cafepulse/internal/pipeline"
	"github.com/IshaanNene/cafepulse/internal/types"
)

// Normalize turns ranking columns into at most limit rows, scanning indices
// in ascending order. Rows without member info, without a nickname, or
// dropped by the filter pipeline are skipped and do not count toward limit.
//
// Row-level faults are returned in skipped and never stop the scan. A panic
// during the scan yields an empty result.
func Normalize(rows *Rows, metric types.Metric, limit int, p *pipeline.Pipeline) (out []types.RankingRow, skipped []error) {
	out = []types.RankingRow{}
	if rows == nil || limit <= 0 {
		return out, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = []types.RankingRow{}
			skipped = append(skipped, fmt.Errorf("normalize %s: panic: %v", metric, r))
		}
	}()

	members, err := rows.members()
	if err != nil {
		return out, []error{err}
	}

	for i := 0; i < len(rows.V) && len(out) < limit; i++ {
		row, err := buildRow(rows, members, metric, i)
		if err != nil {
			skipped = append(skipped, &types.RowError{Index: i, Err: err})
			continue
		}
		if row == nil {
			continue
		}

		kept, err := p.Process(row)
		if err != nil {
			skipped = append(skipped, &types.RowError{Index: i, Err: err})
			continue
		}
		if kept == nil {
			continue
		}
		out = append(out, *kept)
	}
	return out, skipped
}

// Parse decodes a raw statistics document and normalizes it.
func Parse(raw []byte, metric types.Metric, limit int, p *pipeline.Pipeline) ([]types.RankingRow, []error, error) {
	rows, err := Decode(raw)
	if err != nil {
		return []types.RankingRow{}, nil, err
	}
	out, skipped := Normalize(rows, metric, limit, p)
	return out, skipped, nil
}

// buildRow returns nil without error when the member has no info record or
// no nickname. A negative count or a rank below 1 is a row error.
func buildRow(rows *Rows, members map[string]*memberInfo, metric types.Metric, i int) (*types.RankingRow, error) {
	var id flexID
	if err := json.Unmarshal(rows.V[i], &id); err != nil {
		return nil, err
	}

	info, ok := members[string(id)]
	if !ok || info.NickName == "" {
		return nil, nil
	}

	count, err := intAt(rows.Cnt, i, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("cnt: %w", err)
	}
	rank, err := intAt(rows.Rank, i, i+1, 1)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	return &types.RankingRow{
		Rank:        rank,
		MemberID:    string(id),
		UserID:      info.UserID,
		NickName:    info.NickName,
		MemberLevel: info.MemberLevelName,
		Count:       count,
		Metric:      metric,
	}, nil
}
