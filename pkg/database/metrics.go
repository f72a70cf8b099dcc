package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type poolStat struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	read      func(*pgxpool.Stat) float64
}

// PoolStatsCollector exports pgxpool.Stat counters and gauges to Prometheus.
type PoolStatsCollector struct {
	pool    *pgxpool.Pool
	service string
	stats   []poolStat
}

// NewPoolStatsCollector builds a collector labelled with the service name.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	labels := []string{"service"}
	gauge := func(name, help string, read func(*pgxpool.Stat) float64) poolStat {
		return poolStat{prometheus.NewDesc(name, help, labels, nil), prometheus.GaugeValue, read}
	}
	counter := func(name, help string, read func(*pgxpool.Stat) float64) poolStat {
		return poolStat{prometheus.NewDesc(name, help, labels, nil), prometheus.CounterValue, read}
	}

	return &PoolStatsCollector{
		pool:    pool,
		service: service,
		stats: []poolStat{
			gauge("db_pool_acquired_connections", "Number of currently acquired connections",
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
			gauge("db_pool_idle_connections", "Number of currently idle connections",
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
			gauge("db_pool_total_connections", "Total number of connections in the pool",
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
			gauge("db_pool_max_connections", "Maximum number of connections allowed",
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
			gauge("db_pool_constructing_connections", "Number of connections currently being constructed",
				func(s *pgxpool.Stat) float64 { return float64(s.ConstructingConns()) }),
			counter("db_pool_acquire_count_total", "Total number of connection acquires",
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }),
			counter("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections in seconds",
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			counter("db_pool_canceled_acquire_count_total", "Total number of canceled connection acquires",
				func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) }),
			counter("db_pool_empty_acquire_count_total", "Total number of acquires that had to wait for a connection",
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
			counter("db_pool_new_connections_total", "Total number of new connections created",
				func(s *pgxpool.Stat) float64 { return float64(s.NewConnsCount()) }),
			counter("db_pool_max_lifetime_destroy_total", "Total connections destroyed due to max lifetime",
				func(s *pgxpool.Stat) float64 { return float64(s.MaxLifetimeDestroyCount()) }),
			counter("db_pool_max_idle_destroy_total", "Total connections destroyed due to max idle time",
				func(s *pgxpool.Stat) float64 { return float64(s.MaxIdleDestroyCount()) }),
		},
	}
}

func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, s := range c.stats {
		ch <- s.desc
	}
}

func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	for _, s := range c.stats {
		ch <- prometheus.MustNewConstMetric(s.desc, s.valueType, s.read(stat), c.service)
	}
}

// RegisterPoolMetrics registers a pool collector with the default registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(NewPoolStatsCollector(pool, service))
}
