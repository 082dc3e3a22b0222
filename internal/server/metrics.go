package server

import "sync"

// Metrics holds application metrics
type Metrics struct {
	mu sync.RWMutex

	// Link lifecycle metrics
	presignsTotal      int64
	commitsTotal       int64
	commitBytesTotal   int64
	linksResolvedTotal int64
	linksGoneTotal     int64

	// Cleanup metrics
	cleanupRunsTotal        int64
	cleanupLinksDeleted     int64
	cleanupAssetsDeleted    int64
	objectDeleteErrorsTotal int64

	// System metrics
	requestsTotal    int64
	requestErrors5xx int64
	requestErrors4xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordPresign records one issued upload capability
func (m *Metrics) RecordPresign() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presignsTotal++
}

// RecordCommit records one committed upload and its declared size
func (m *Metrics) RecordCommit(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitsTotal++
	m.commitBytesTotal += bytes
}

// RecordLinkResolved records a successful share-link redirect
func (m *Metrics) RecordLinkResolved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linksResolvedTotal++
}

// RecordLinkGone records a resolve that hit an expired link
func (m *Metrics) RecordLinkGone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linksGoneTotal++
}

// RecordCleanup records one completed sweep
func (m *Metrics) RecordCleanup(links, assets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupRunsTotal++
	m.cleanupLinksDeleted += int64(links)
	m.cleanupAssetsDeleted += int64(assets)
}

// RecordObjectDeleteError records a failed object delete during reclamation
func (m *Metrics) RecordObjectDeleteError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objectDeleteErrorsTotal++
}

// RecordRequest records an HTTP request
func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// Snapshot returns a point-in-time copy of the counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		PresignsTotal:           m.presignsTotal,
		CommitsTotal:            m.commitsTotal,
		CommitBytesTotal:        m.commitBytesTotal,
		LinksResolvedTotal:      m.linksResolvedTotal,
		LinksGoneTotal:          m.linksGoneTotal,
		CleanupRunsTotal:        m.cleanupRunsTotal,
		CleanupLinksDeleted:     m.cleanupLinksDeleted,
		CleanupAssetsDeleted:    m.cleanupAssetsDeleted,
		ObjectDeleteErrorsTotal: m.objectDeleteErrorsTotal,
		RequestsTotal:           m.requestsTotal,
		RequestErrors5xx:        m.requestErrors5xx,
		RequestErrors4xx:        m.requestErrors4xx,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	PresignsTotal           int64 `json:"presigns_total"`
	CommitsTotal            int64 `json:"commits_total"`
	CommitBytesTotal        int64 `json:"commit_bytes_total"`
	LinksResolvedTotal      int64 `json:"links_resolved_total"`
	LinksGoneTotal          int64 `json:"links_gone_total"`
	CleanupRunsTotal        int64 `json:"cleanup_runs_total"`
	CleanupLinksDeleted     int64 `json:"cleanup_links_deleted"`
	CleanupAssetsDeleted    int64 `json:"cleanup_assets_deleted"`
	ObjectDeleteErrorsTotal int64 `json:"object_delete_errors_total"`
	RequestsTotal           int64 `json:"requests_total"`
	RequestErrors5xx        int64 `json:"request_errors_5xx"`
	RequestErrors4xx        int64 `json:"request_errors_4xx"`
}
