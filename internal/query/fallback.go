package query

import (
	"fmt"

	"SessionScope/internal/model"
)

// The fallback dataset returned when ClickHouse is unreachable or a
// query fails. Values are fixed so that downstream contracts stay
// stable and tests can pin them; callers distinguish it from live data
// via the Source marker, not the payload shape.

// fallbackBaseMs is 2024-01-15 14:30:25 UTC in epoch milliseconds.
const fallbackBaseMs uint64 = 1705329025000

const fallbackTotal uint64 = 1000

func fallbackSessions(limit int) model.SessionPage {
	data := make([]model.SessionRecord, 0, limit)
	for i := 0; i < limit; i++ {
		data = append(data, model.SessionRecord{
			Timestamp:          fallbackBaseMs,
			SrcIP:              fmt.Sprintf("192.168.1.%d", 100+i),
			DstIP:              fmt.Sprintf("8.8.8.%d", 8+i%4),
			SrcPort:            uint16(5432 + i),
			DstPort:            53,
			Protocol:           17,
			TotalPackets:       24,
			TotalBytes:         1536,
			UpPackets:          12,
			UpBytes:            768,
			DownPackets:        12,
			DownBytes:          768,
			Duration:           120.5,
			AvgPPS:             0.2,
			AvgBPS:             12.8,
			MinPacketSize:      64,
			MaxPacketSize:      64,
			AvgPacketSize:      64.0,
			ProtocolName:       "DNS",
			ProtocolConfidence: 95,
			AppName:            "DNS Query",
			AppConfidence:      90,
			MatchedDomain:      "google.com",
			FirstSeen:          fallbackBaseMs,
			LastSeen:           fallbackBaseMs + 120000,
			TCPFlags:           "",
			Retransmissions:    0,
			OutOfOrder:         0,
			LostPackets:        0,
		})
	}
	return model.SessionPage{Data: data, Total: fallbackTotal}
}

func fallbackStats() model.Stats {
	return model.Stats{
		TotalSessions: 108567,
		TotalPackets:  26214400,
		TotalTraffic:  16777216000,
		AvgSpeed:      125000000,
		UniqueIPs:     2543,
		LastActivity:  formatMs(fallbackBaseMs),
	}
}

func fallbackTopIPs(limit int) []model.TopIP {
	ips := []model.TopIP{
		{IP: "192.168.1.100", SessionCount: 1245, TotalBytes: 2147483648, Risk: "low"},
		{IP: "10.0.0.50", SessionCount: 892, TotalBytes: 1879048192, Risk: "medium"},
		{IP: "172.16.0.25", SessionCount: 634, TotalBytes: 1258291200, Risk: "low"},
	}
	if limit < len(ips) {
		ips = ips[:limit]
	}
	return ips
}

func fallbackProtocolStats() []model.ProtocolStat {
	return []model.ProtocolStat{
		{Name: "HTTP", Count: 45236, Percentage: 42.0},
		{Name: "HTTPS", Count: 38921, Percentage: 36.0},
		{Name: "DNS", Count: 15678, Percentage: 15.0},
	}
}

func fallbackTimeRange() model.TimeRange {
	const weekMs = 7 * 24 * 3600 * 1000
	min := fallbackBaseMs - weekMs
	return model.TimeRange{
		MinTimestamp: min,
		MaxTimestamp: fallbackBaseMs,
		MinTime:      formatMs(min),
		MaxTime:      formatMs(fallbackBaseMs),
	}
}
