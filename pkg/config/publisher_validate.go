package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// CloudWatch accepts at most ten dimensions per metric datum.
const maxDimensions = 10

// Validate checks the publishing interval and the base dimension list.
func (p *PublisherConfig) Validate() error {
	if err := valid.Struct(p); err != nil {
		return err
	}
	if p.Interval < time.Second || p.Interval > 3600*time.Second {
		return fmt.Errorf("publisher.interval must be between 1s and 3600s, got %s", p.Interval)
	}
	if len(p.Dimensions) > maxDimensions {
		return fmt.Errorf("publisher.dimensions supports at most %d entries, got %d", maxDimensions, len(p.Dimensions))
	}

	seen := map[string]bool{}
	for _, d := range p.Dimensions {
		name, value, ok := strings.Cut(d, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(value) == "" {
			return fmt.Errorf("publisher.dimensions entry %q must have the form Name=Value", d)
		}
		if seen[name] {
			return fmt.Errorf("publisher.dimensions contains duplicate dimension name: %s", name)
		}
		seen[name] = true
	}

	if p.LeaderElection {
		if strings.TrimSpace(p.LeaderLockKey) == "" {
			return fmt.Errorf("publisher.leader_lock_key cannot be empty when leader election is enabled")
		}
		if p.LeaderLockTTL < 5*time.Second {
			return fmt.Errorf("publisher.leader_lock_ttl must be at least 5s, got %s", p.LeaderLockTTL)
		}
	}
	return nil
}

// Validate checks the Redis address format.
func (r *RedisConfig) Validate() error {
	if err := valid.Struct(r); err != nil {
		return err
	}
	if _, err := net.ResolveTCPAddr("tcp", r.Addr); err != nil {
		return fmt.Errorf("redis.addr format invalid (expected: host:port), got %s: %w", r.Addr, err)
	}
	return nil
}

// Validate checks the debug HTTP server address when the server is enabled.
func (s *ServerConfig) Validate() error {
	if err := valid.Struct(s); err != nil {
		return err
	}
	if !s.Enable {
		return nil
	}
	if _, err := net.ResolveTCPAddr("tcp", s.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", s.Addr, err)
	}
	return nil
}
