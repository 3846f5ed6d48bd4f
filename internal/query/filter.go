package query

import (
	"strings"
	"time"

	"SessionScope/internal/model"
)

// timeLayout is the wall-clock format accepted for time filters.
const timeLayout = "2006-01-02 15:04:05"

// Predicate is a compiled set of conjunctive filter conditions. Conds
// holds condition fragments with `?` placeholders only; every literal
// value lives in Args so that caller input never reaches query text.
type Predicate struct {
	Conds []string
	Args  []any
}

// Compile turns a SessionFilter into a Predicate.
//
// The time window is applied only when both bounds parse; a lone or
// malformed bound drops the time condition entirely rather than
// erroring, so the query proceeds unfiltered by time. Bounds convert
// to epoch milliseconds with the end second fully inclusive.
func Compile(f model.SessionFilter) Predicate {
	var p Predicate

	if f.StartTime != "" && f.EndTime != "" {
		start, errS := time.ParseInLocation(timeLayout, f.StartTime, time.UTC)
		end, errE := time.ParseInLocation(timeLayout, f.EndTime, time.UTC)
		if errS == nil && errE == nil {
			startMs := start.Unix() * 1000
			endMs := end.Unix()*1000 + 999
			p.Conds = append(p.Conds, "timestamp BETWEEN ? AND ?")
			p.Args = append(p.Args, startMs, endMs)
		}
	}

	if f.SrcIP != "" {
		p.Conds = append(p.Conds, "src_ip = ?")
		p.Args = append(p.Args, f.SrcIP)
	}
	if f.DstIP != "" {
		p.Conds = append(p.Conds, "dst_ip = ?")
		p.Args = append(p.Args, f.DstIP)
	}
	if f.Protocol != "" {
		p.Conds = append(p.Conds, "protocol_name = ?")
		p.Args = append(p.Args, f.Protocol)
	}
	if f.AppName != "" {
		p.Conds = append(p.Conds, "app_name = ?")
		p.Args = append(p.Args, f.AppName)
	}

	return p
}

// WhereClause renders the predicate as a WHERE clause, or an empty
// string when no conditions were compiled.
func (p Predicate) WhereClause() string {
	if len(p.Conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(p.Conds, " AND ")
}
