package query

import (
	"context"
	"fmt"
	"time"

	"SessionScope/internal/config"
	"SessionScope/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"
)

// Source tells callers whether a result came from ClickHouse or from
// the deterministic fallback dataset.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// sessionColumns is the fixed projection for session record queries,
// in scan order.
const sessionColumns = `timestamp, src_ip, dst_ip, src_port, dst_port, protocol,
	total_packets, total_bytes, up_packets, up_bytes, down_packets, down_bytes,
	duration, avg_pps, avg_bps, min_packet_size, max_packet_size, avg_packet_size,
	protocol_name, protocol_confidence, app_name, app_confidence, matched_domain,
	first_seen, last_seen, tcp_flags, retransmissions, out_of_order, lost_packets`

// Gateway executes the five fixed query shapes against ClickHouse and
// normalizes rows into model records. The connection is established
// once at construction and shared across requests; when it is absent
// or any query fails, operations return the fallback dataset instead
// of an error. Queries never write.
type Gateway struct {
	conn    driver.Conn
	table   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewGateway connects to ClickHouse using the given config. A failed
// connection is logged, not fatal: the returned gateway serves the
// fallback dataset until the process restarts.
func NewGateway(cfg config.ClickHouseConfig, log zerolog.Logger) *Gateway {
	g := &Gateway{
		table:   cfg.Database + "." + cfg.Table,
		timeout: cfg.Timeout(),
		log:     log.With().Str("component", "query").Logger(),
	}

	conn, err := connect(cfg)
	if err != nil {
		g.log.Warn().Err(err).Msg("clickhouse unavailable, serving fallback data")
		return g
	}
	g.conn = conn
	g.log.Info().Str("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)).Str("table", g.table).Msg("connected to clickhouse")
	return g
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// ListSessions returns one page of session records ordered by time
// descending, plus the total count matching the same predicate. The
// data and count queries share the identical compiled predicate so
// pages and totals stay consistent.
func (g *Gateway) ListSessions(ctx context.Context, f model.SessionFilter, limit, offset int) (model.SessionPage, Source) {
	if g.conn == nil {
		return fallbackSessions(limit), SourceFallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	pred := Compile(f)

	dataQuery := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY timestamp DESC LIMIT ? OFFSET ?`,
		sessionColumns, g.table, pred.WhereClause())
	args := append(append([]any{}, pred.Args...), limit, offset)

	rows, err := g.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		g.log.Error().Err(err).Msg("session list query failed")
		return fallbackSessions(limit), SourceFallback
	}
	defer rows.Close()

	data := make([]model.SessionRecord, 0, limit)
	for rows.Next() {
		var r model.SessionRecord
		if err := rows.Scan(
			&r.Timestamp, &r.SrcIP, &r.DstIP, &r.SrcPort, &r.DstPort, &r.Protocol,
			&r.TotalPackets, &r.TotalBytes, &r.UpPackets, &r.UpBytes, &r.DownPackets, &r.DownBytes,
			&r.Duration, &r.AvgPPS, &r.AvgBPS, &r.MinPacketSize, &r.MaxPacketSize, &r.AvgPacketSize,
			&r.ProtocolName, &r.ProtocolConfidence, &r.AppName, &r.AppConfidence, &r.MatchedDomain,
			&r.FirstSeen, &r.LastSeen, &r.TCPFlags, &r.Retransmissions, &r.OutOfOrder, &r.LostPackets,
		); err != nil {
			g.log.Error().Err(err).Msg("failed to scan session row")
			return fallbackSessions(limit), SourceFallback
		}
		data = append(data, r)
	}
	if err := rows.Err(); err != nil {
		g.log.Error().Err(err).Msg("session list iteration failed")
		return fallbackSessions(limit), SourceFallback
	}

	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s %s`, g.table, pred.WhereClause())
	var total uint64
	if err := g.conn.QueryRow(ctx, countQuery, pred.Args...).Scan(&total); err != nil {
		g.log.Error().Err(err).Msg("session count query failed")
		return fallbackSessions(limit), SourceFallback
	}

	return model.SessionPage{Data: data, Total: total}, SourceLive
}

// Stats returns the single-row aggregate over the entire session
// population.
func (g *Gateway) Stats(ctx context.Context) (model.Stats, Source) {
	if g.conn == nil {
		return fallbackStats(), SourceFallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT
			count(*) AS total_sessions,
			sum(total_packets) AS total_packets,
			sum(total_bytes) AS total_bytes,
			avg(avg_bps) AS avg_speed,
			uniq(src_ip) AS unique_ips,
			max(timestamp) AS last_activity
		FROM %s`, g.table)

	var (
		stats  model.Stats
		lastMs uint64
	)
	row := g.conn.QueryRow(ctx, query)
	if err := row.Scan(&stats.TotalSessions, &stats.TotalPackets, &stats.TotalTraffic,
		&stats.AvgSpeed, &stats.UniqueIPs, &lastMs); err != nil {
		g.log.Error().Err(err).Msg("stats query failed")
		return fallbackStats(), SourceFallback
	}
	stats.LastActivity = formatMs(lastMs)

	return stats, SourceLive
}

// TopIPs groups sessions by source IP, counts and sums bytes, and
// returns the top entries by session count.
func (g *Gateway) TopIPs(ctx context.Context, limit int) ([]model.TopIP, Source) {
	if g.conn == nil {
		return fallbackTopIPs(limit), SourceFallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT
			src_ip,
			count(*) AS sessions,
			sum(total_bytes) AS traffic_bytes
		FROM %s
		GROUP BY src_ip
		ORDER BY sessions DESC
		LIMIT ?`, g.table)

	rows, err := g.conn.Query(ctx, query, limit)
	if err != nil {
		g.log.Error().Err(err).Msg("top ips query failed")
		return fallbackTopIPs(limit), SourceFallback
	}
	defer rows.Close()

	entries := make([]model.TopIP, 0, limit)
	for rows.Next() {
		var e model.TopIP
		if err := rows.Scan(&e.IP, &e.SessionCount, &e.TotalBytes); err != nil {
			g.log.Error().Err(err).Msg("failed to scan top ip row")
			return fallbackTopIPs(limit), SourceFallback
		}
		e.Risk = "low"
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		g.log.Error().Err(err).Msg("top ips iteration failed")
		return fallbackTopIPs(limit), SourceFallback
	}

	return entries, SourceLive
}

// ProtocolStats returns up to 10 protocol entries with occurrence
// counts and their percentage of the unfiltered record population.
// Records with an empty protocol name are excluded.
func (g *Gateway) ProtocolStats(ctx context.Context) ([]model.ProtocolStat, Source) {
	if g.conn == nil {
		return fallbackProtocolStats(), SourceFallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT
			protocol_name AS name,
			count(*) AS cnt,
			round((count(*) * 100.0) / (SELECT count(*) FROM %s), 2) AS percentage
		FROM %s
		WHERE protocol_name != ''
		GROUP BY protocol_name
		ORDER BY cnt DESC
		LIMIT 10`, g.table, g.table)

	rows, err := g.conn.Query(ctx, query)
	if err != nil {
		g.log.Error().Err(err).Msg("protocol stats query failed")
		return fallbackProtocolStats(), SourceFallback
	}
	defer rows.Close()

	var entries []model.ProtocolStat
	for rows.Next() {
		var e model.ProtocolStat
		if err := rows.Scan(&e.Name, &e.Count, &e.Percentage); err != nil {
			g.log.Error().Err(err).Msg("failed to scan protocol row")
			return fallbackProtocolStats(), SourceFallback
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		g.log.Error().Err(err).Msg("protocol stats iteration failed")
		return fallbackProtocolStats(), SourceFallback
	}

	return entries, SourceLive
}

// TimeRange returns the min and max timestamp present in the store.
func (g *Gateway) TimeRange(ctx context.Context) (model.TimeRange, Source) {
	if g.conn == nil {
		return fallbackTimeRange(), SourceFallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT min(timestamp), max(timestamp) FROM %s`, g.table)

	var tr model.TimeRange
	row := g.conn.QueryRow(ctx, query)
	if err := row.Scan(&tr.MinTimestamp, &tr.MaxTimestamp); err != nil {
		g.log.Error().Err(err).Msg("time range query failed")
		return fallbackTimeRange(), SourceFallback
	}
	tr.MinTime = formatMs(tr.MinTimestamp)
	tr.MaxTime = formatMs(tr.MaxTimestamp)

	return tr, SourceLive
}

func formatMs(ms uint64) string {
	return time.UnixMilli(int64(ms)).UTC().Format(timeLayout)
}
