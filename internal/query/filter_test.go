package query

import (
	"strings"
	"testing"

	"SessionScope/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEmptyFilter(t *testing.T) {
	p := Compile(model.SessionFilter{})

	assert.Empty(t, p.Conds)
	assert.Empty(t, p.Args)
	assert.Equal(t, "", p.WhereClause())
}

func TestCompileTimeWindow(t *testing.T) {
	p := Compile(model.SessionFilter{
		StartTime: "2024-01-15 00:00:00",
		EndTime:   "2024-01-15 23:59:59",
	})

	require.Equal(t, []string{"timestamp BETWEEN ? AND ?"}, p.Conds)
	require.Len(t, p.Args, 2)
	// 2024-01-15 00:00:00 UTC and the last millisecond of the end second.
	assert.Equal(t, int64(1705276800000), p.Args[0])
	assert.Equal(t, int64(1705363199999), p.Args[1])
}

func TestCompileLoneTimeBoundIgnored(t *testing.T) {
	cases := []model.SessionFilter{
		{StartTime: "2024-01-15 00:00:00"},
		{EndTime: "2024-01-15 23:59:59"},
	}
	for _, f := range cases {
		p := Compile(f)
		assert.Empty(t, p.Conds)
		assert.Empty(t, p.Args)
	}
}

func TestCompileMalformedTimeDropped(t *testing.T) {
	p := Compile(model.SessionFilter{
		StartTime: "not-a-time",
		EndTime:   "2024-01-15 23:59:59",
		SrcIP:     "10.0.0.1",
	})

	// Only the equality condition survives.
	require.Equal(t, []string{"src_ip = ?"}, p.Conds)
	assert.Equal(t, []any{"10.0.0.1"}, p.Args)
}

func TestCompileEqualityFilters(t *testing.T) {
	p := Compile(model.SessionFilter{
		SrcIP:    "192.168.1.1",
		DstIP:    "8.8.8.8",
		Protocol: "DNS",
		AppName:  "DNS Query",
	})

	require.Equal(t, []string{
		"src_ip = ?",
		"dst_ip = ?",
		"protocol_name = ?",
		"app_name = ?",
	}, p.Conds)
	assert.Equal(t, []any{"192.168.1.1", "8.8.8.8", "DNS", "DNS Query"}, p.Args)
	assert.Equal(t, "WHERE src_ip = ? AND dst_ip = ? AND protocol_name = ? AND app_name = ?", p.WhereClause())
}

func TestCompileHostileValuesNeverReachQueryText(t *testing.T) {
	hostile := []string{
		"'; DROP TABLE sessions; --",
		`" OR 1=1`,
		"a\x00b\nc",
	}
	for _, v := range hostile {
		p := Compile(model.SessionFilter{SrcIP: v, Protocol: v, AppName: v, DstIP: v})

		clause := p.WhereClause()
		assert.NotContains(t, clause, v)
		assert.NotContains(t, clause, "DROP")
		// One bound arg per condition, values intact.
		require.Len(t, p.Args, len(p.Conds))
		for _, a := range p.Args {
			assert.Equal(t, v, a)
		}
		assert.Equal(t, len(p.Conds), strings.Count(clause, "?"))
	}
}
