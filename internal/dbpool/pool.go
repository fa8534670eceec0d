package dbpool

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger is the injectable capability the pool and its reaper use to
// report close failures that must not surface to callers (spec §7).
// It deliberately mirrors the teacher's own ambient-logging shape — a
// minimal sink, not a structured-logging framework dependency (see
// DESIGN.md/SPEC_FULL.md on why this one concern stays on the standard
// library).
type Logger interface {
	Printf(format string, args ...any)
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

// reusableConnection wraps one Connection and tracks how many clients
// currently share it. Its count and closed flag are serialised by its
// own mutex, independent of the pool's list mutex (spec §5).
type reusableConnection struct {
	mu            sync.Mutex
	conn          *Connection
	activeClients int
	lastLeave     time.Time
	closed        bool
	index         int64
}

// tryJoin increments activeClients and returns true if entry is not
// closed and under cap; otherwise it leaves the entry untouched and
// returns false. The closed flag is read/set under this same lock, so
// no new client can join a connection the reaper has just closed.
func (e *reusableConnection) tryJoin(cap int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.activeClients >= cap {
		return false
	}
	e.activeClients++
	return true
}

func (e *reusableConnection) clients() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeClients
}

// Config configures a ConnectionPool: how long an idle connection may
// live (KeepAlive) and the capacity schedule governing per-connection
// client caps as the pool grows.
type Config struct {
	KeepAlive time.Duration
	Schedule  CapacitySchedule
	Logger    Logger
}

// ConnectionPool borrows, shares, and reclaims Connections according
// to Config. All list mutation is serialised by mu; per-entry state is
// serialised by each entry's own mutex (spec §5).
type ConnectionPool struct {
	settings     Settings
	databaseName string
	keepAlive    time.Duration
	schedule     CapacitySchedule
	logger       Logger

	mu        sync.Mutex
	conns     []*reusableConnection
	nextIndex int64

	reaperMu      sync.Mutex
	reaperRunning bool
}

// New constructs a ConnectionPool for databaseName.
func New(settings Settings, databaseName string, cfg Config) *ConnectionPool {
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger{}
	}
	schedule := cfg.Schedule
	if schedule == nil {
		schedule = CapacitySchedule{{OpenCountThreshold: 1, MaxClients: 1}}
	}
	return &ConnectionPool{
		settings:     settings,
		databaseName: databaseName,
		keepAlive:    cfg.KeepAlive,
		schedule:     schedule,
		logger:       logger,
	}
}

// FromHalving constructs a ConnectionPool whose capacity schedule is
// derived by HalvingSchedule(maxConnections, hardCap).
func FromHalving(settings Settings, databaseName string, maxConnections, hardCap int, keepAlive time.Duration, logger Logger) *ConnectionPool {
	return New(settings, databaseName, Config{
		KeepAlive: keepAlive,
		Schedule:  HalvingSchedule(maxConnections, hardCap),
		Logger:    logger,
	})
}

// Borrow acquires a connection (joining an existing reusable
// connection under the current capacity cap, or opening a new one),
// runs client with its native handle, and always records the leave
// (decrementing the active-client count, signalling the reaper or
// closing the entry) even if client panics.
func (p *ConnectionPool) Borrow(ctx context.Context, client func(*sql.DB) error) error {
	entry, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer p.leave(entry)

	// spec §4.E validity probe: a reused connection may have gone stale
	// since it was last handed out; re-open it transparently before
	// exposing its handle. Freshly opened entries (acquire just called
	// conn.Open) pay one redundant ping here, which is cheap next to a
	// round trip that might otherwise fail mid-query.
	if err := entry.conn.EnsureOpen(ctx); err != nil {
		return err
	}
	return client(entry.conn.DB())
}

func (p *ConnectionPool) acquire(ctx context.Context) (*reusableConnection, error) {
	p.mu.Lock()
	cap := p.schedule.CapFor(len(p.conns))
	conns := append([]*reusableConnection{}, p.conns...)
	p.mu.Unlock()

	// spec §4.E step 3: prefer the least-loaded entry, not the first
	// one that happens to join. Sort a snapshot of clients() counts
	// ascending, then try each in turn — a later entry may still win
	// tryJoin if a concurrent leave/join changed counts mid-scan.
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].clients() < conns[j].clients()
	})
	for _, e := range conns {
		if e.tryJoin(cap) {
			return e, nil
		}
	}

	conn := NewConnection(p.settings, p.databaseName)
	if err := conn.Open(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.nextIndex++
	entry := &reusableConnection{conn: conn, activeClients: 1, index: p.nextIndex}
	p.conns = append(p.conns, entry)
	p.mu.Unlock()
	return entry, nil
}

func (p *ConnectionPool) leave(entry *reusableConnection) {
	entry.mu.Lock()
	entry.lastLeave = time.Now()
	entry.activeClients--
	closed := entry.closed
	count := entry.activeClients
	entry.mu.Unlock()

	if closed && count == 0 {
		if err := entry.conn.Close(); err != nil {
			p.logger.Printf("dbpool: failed to close connection %d: %v", entry.index, err)
		}
		return
	}
	if count == 0 {
		p.signalReaper()
	}
}

// signalReaper starts the idle reaper if it is not already running.
// At most one reaper goroutine runs at a time.
func (p *ConnectionPool) signalReaper() {
	p.reaperMu.Lock()
	if p.reaperRunning {
		p.reaperMu.Unlock()
		return
	}
	p.reaperRunning = true
	p.reaperMu.Unlock()
	go p.reapLoop()
}

func (p *ConnectionPool) reapLoop() {
	for {
		wake, hasIdle := p.nextWake()
		if !hasIdle {
			p.reaperMu.Lock()
			p.reaperRunning = false
			p.reaperMu.Unlock()
			return
		}
		if sleep := time.Until(wake); sleep > 0 {
			time.Sleep(sleep)
		}
		p.reapOnce()
	}
}

// nextWake reports the earliest lastLeave+keepAlive among currently
// idle, unclosed entries.
func (p *ConnectionPool) nextWake() (time.Time, bool) {
	p.mu.Lock()
	conns := append([]*reusableConnection{}, p.conns...)
	p.mu.Unlock()

	var wake time.Time
	hasIdle := false
	for _, e := range conns {
		e.mu.Lock()
		if !e.closed && e.activeClients == 0 {
			t := e.lastLeave.Add(p.keepAlive)
			if !hasIdle || t.Before(wake) {
				wake = t
				hasIdle = true
			}
		}
		e.mu.Unlock()
	}
	return wake, hasIdle
}

// reapOnce partitions the connection list into entries that are still
// within their keep-alive window (or still active) and entries to
// close, then closes the latter. An entry is never closed while
// active_client_count > 0; the closed flag is set under the same
// per-entry mutex as tryJoin, so the leave path (not the reaper) closes
// such an entry once its last client departs.
func (p *ConnectionPool) reapOnce() {
	now := time.Now()

	p.mu.Lock()
	var stillOpen, toClose []*reusableConnection
	for _, e := range p.conns {
		e.mu.Lock()
		keep := e.activeClients > 0 || e.lastLeave.After(now.Add(-p.keepAlive))
		e.mu.Unlock()
		if keep {
			stillOpen = append(stillOpen, e)
		} else {
			toClose = append(toClose, e)
		}
	}
	p.conns = stillOpen
	p.mu.Unlock()

	for _, e := range toClose {
		e.mu.Lock()
		e.closed = true
		count := e.activeClients
		e.mu.Unlock()
		if count == 0 {
			if err := e.conn.Close(); err != nil {
				p.logger.Printf("dbpool: reaper failed to close connection %d: %v", e.index, err)
			}
		}
	}
}

// OpenCount reports how many physical connections the pool currently
// holds, for diagnostics and tests.
func (p *ConnectionPool) OpenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// CloseAll closes every connection the pool currently holds,
// regardless of active-client count. Intended for shutdown; it does
// not wait for in-flight Borrow calls to finish.
func (p *ConnectionPool) CloseAll() error {
	p.mu.Lock()
	conns := p.conns
	p.conns = nil
	p.mu.Unlock()

	var firstErr error
	for _, e := range conns {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		if err := e.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("dbpool: close connection %d: %w", e.index, err)
		}
	}
	return firstErr
}
