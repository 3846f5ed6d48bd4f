package model

// SessionRecord is one observed network flow session as stored in the
// sessions table. All time fields are epoch milliseconds. Records are
// read projections; this service never writes them.
type SessionRecord struct {
	Timestamp          uint64  `json:"timestamp"`
	SrcIP              string  `json:"src_ip"`
	DstIP              string  `json:"dst_ip"`
	SrcPort            uint16  `json:"src_port"`
	DstPort            uint16  `json:"dst_port"`
	Protocol           uint8   `json:"protocol"`
	TotalPackets       uint64  `json:"total_packets"`
	TotalBytes         uint64  `json:"total_bytes"`
	UpPackets          uint64  `json:"up_packets"`
	UpBytes            uint64  `json:"up_bytes"`
	DownPackets        uint64  `json:"down_packets"`
	DownBytes          uint64  `json:"down_bytes"`
	Duration           float64 `json:"duration"`
	AvgPPS             float64 `json:"avg_pps"`
	AvgBPS             float64 `json:"avg_bps"`
	MinPacketSize      uint16  `json:"min_packet_size"`
	MaxPacketSize      uint16  `json:"max_packet_size"`
	AvgPacketSize      float64 `json:"avg_packet_size"`
	ProtocolName       string  `json:"protocol_name"`
	ProtocolConfidence uint8   `json:"protocol_confidence"`
	AppName            string  `json:"app_name"`
	AppConfidence      uint8   `json:"app_confidence"`
	MatchedDomain      string  `json:"matched_domain"`
	FirstSeen          uint64  `json:"first_seen"`
	LastSeen           uint64  `json:"last_seen"`
	TCPFlags           string  `json:"tcp_flags"`
	Retransmissions    uint32  `json:"retransmissions"`
	OutOfOrder         uint32  `json:"out_of_order"`
	LostPackets        uint32  `json:"lost_packets"`
}

// SessionFilter is the optional set of caller-supplied filters for the
// list and export operations. All fields are exact-match except the
// time window, which is inclusive on both bounds. StartTime and
// EndTime are wall-clock strings in "2006-01-02 15:04:05" form; a
// window is only applied when both parse.
type SessionFilter struct {
	StartTime string
	EndTime   string
	SrcIP     string
	DstIP     string
	Protocol  string
	AppName   string
}

// SessionPage is one page of session records plus the total count of
// records matching the same filter.
type SessionPage struct {
	Data  []SessionRecord `json:"data"`
	Total uint64          `json:"total"`
}

// Stats is the single-row aggregate over the whole session population.
type Stats struct {
	TotalSessions uint64  `json:"total_sessions"`
	TotalPackets  uint64  `json:"total_packets"`
	TotalTraffic  uint64  `json:"total_traffic"`
	AvgSpeed      float64 `json:"avg_speed"`
	UniqueIPs     uint64  `json:"unique_ips"`
	LastActivity  string  `json:"last_activity"`
}

// TopIP is one entry of the top-talkers grouping. Risk is a static
// default; scoring it from data is a future extension.
type TopIP struct {
	IP           string `json:"ip"`
	SessionCount uint64 `json:"session_count"`
	TotalBytes   uint64 `json:"total_bytes"`
	Risk         string `json:"risk"`
}

// ProtocolStat is one entry of the protocol breakdown. Percentage is
// computed against the unfiltered record population.
type ProtocolStat struct {
	Name       string  `json:"name"`
	Count      uint64  `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TimeRange is the min/max of the time column over the whole
// population, both as raw epoch milliseconds and formatted wall clock.
type TimeRange struct {
	MinTimestamp uint64 `json:"min_timestamp"`
	MaxTimestamp uint64 `json:"max_timestamp"`
	MinTime      string `json:"min_time"`
	MaxTime      string `json:"max_time"`
}
