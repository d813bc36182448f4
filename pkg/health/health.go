// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package health runs readiness checks for the REST server.
//
// Liveness only reports that the process is serving. Readiness runs every
// registered check and fails when any of them is unhealthy.
package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// Report aggregates check results.
type Report struct {
	Status Status        `json:"status"`
	Uptime string        `json:"uptime"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckFunc returns nil when the component is usable.
type CheckFunc func(ctx context.Context) error

// Checker holds named readiness checks.
type Checker struct {
	mu        sync.RWMutex
	startTime time.Time
	timeout   time.Duration
	checks    map[string]CheckFunc
}

// NewChecker creates a checker whose checks each get timeout to finish.
// A zero timeout means 5 seconds.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		startTime: time.Now(),
		timeout:   timeout,
		checks:    make(map[string]CheckFunc),
	}
}

// Register adds or replaces a check. A nil check is ignored.
func (c *Checker) Register(name string, check CheckFunc) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Live reports the process as healthy.
func (c *Checker) Live() Report {
	return Report{Status: StatusHealthy, Uptime: c.uptime()}
}

// Ready runs all checks concurrently. Results are sorted by name.
func (c *Checker) Ready(ctx context.Context) Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()
	sort.Strings(names)

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = c.run(ctx, name, checks[name])
		}(i, name)
	}
	wg.Wait()

	report := Report{Status: StatusHealthy, Uptime: c.uptime(), Checks: results}
	for _, r := range results {
		if r.Status != StatusHealthy {
			report.Status = StatusUnhealthy
		}
	}
	return report
}

func (c *Checker) run(ctx context.Context, name string, check CheckFunc) (result CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result = CheckResult{Name: name, Status: StatusHealthy}
	defer func() {
		if p := recover(); p != nil {
			result.Status = StatusUnhealthy
			result.Error = fmt.Sprintf("check panicked: %v", p)
		}
		result.Latency = time.Since(start)
	}()

	if err := check(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}

func (c *Checker) uptime() string {
	return time.Since(c.startTime).Round(time.Second).String()
}

// RandomSource checks that r can still produce bytes. Sources that report
// availability are asked first.
func RandomSource(r io.Reader) CheckFunc {
	return func(ctx context.Context) error {
		if a, ok := r.(interface{ Available() bool }); ok && !a.Available() {
			return errors.New("random source unavailable")
		}
		done := make(chan error, 1)
		go func() {
			var b [1]byte
			_, err := io.ReadFull(r, b[:])
			done <- err
		}()
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("random source read failed: %w", err)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
