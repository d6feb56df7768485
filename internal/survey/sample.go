package survey

// MissingGroupKey names the sample group for responses without a membership answer.
const MissingGroupKey = "(missing)"

type SampleInfo struct {
	TotalSample            int            `json:"totalSample"`
	MemberTypeDistribution map[string]int `json:"memberTypeDistribution"`
}

type SampleResult struct {
	Data       []Response `json:"data"`
	SampleInfo SampleInfo `json:"sampleInfo"`
}

// Sample draws up to ceil(limit/groups) responses from each membership group,
// in first-seen group order, and truncates the result to limit.
//
// The distribution is computed before truncation, so when later groups are
// cut it reports more than Data holds.
func (e *Engine) Sample(limit int) SampleResult {
	groups := make(map[string][]Response)
	order := make([]string, 0)
	for _, row := range e.data.responses {
		key := MissingGroupKey
		if v, ok := row[e.sampleColumn]; ok && v != nil {
			key = stringify(v)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	out := SampleResult{
		Data:       make([]Response, 0),
		SampleInfo: SampleInfo{MemberTypeDistribution: make(map[string]int, len(order))},
	}
	if len(order) == 0 {
		return out
	}

	perType := (limit + len(order) - 1) / len(order)
	sample := make([]Response, 0, min(limit, e.data.Len()))
	for _, key := range order {
		take := min(len(groups[key]), perType)
		sample = append(sample, groups[key][:take]...)
		out.SampleInfo.MemberTypeDistribution[key] = take
	}

	total := min(len(sample), limit)
	out.Data = sample[:total]
	out.SampleInfo.TotalSample = total
	return out
}
