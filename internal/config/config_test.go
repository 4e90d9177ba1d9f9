package config

import "testing"

func TestCheckFillsDefaults(t *testing.T) {
	var c Config
	c.Check()
	if c.Host != "localhost" {
		t.Fatalf("Host = %q", c.Host)
	}
	if c.Port != 8080 {
		t.Fatalf("Port = %d", c.Port)
	}
	if c.ReadTimeoutSeconds != 10 {
		t.Fatalf("ReadTimeoutSeconds = %d", c.ReadTimeoutSeconds)
	}
	if c.RefreshIntervalMicros != 30000 {
		t.Fatalf("RefreshIntervalMicros = %d", c.RefreshIntervalMicros)
	}
}

func TestCheckRejectsOutOfRangePort(t *testing.T) {
	c := Config{Port: -1}
	c.Check()
	if c.Port != 8080 {
		t.Fatalf("Port = %d, want fallback 8080", c.Port)
	}
}

func TestAddr(t *testing.T) {
	c := Config{Host: "0.0.0.0", Port: 9000}
	addr, err := c.Addr()
	if err != nil {
		t.Fatal(err)
	}
	if addr != "0.0.0.0:9000" {
		t.Fatalf("Addr() = %q", addr)
	}
}

func TestAddrRejectsZeroPort(t *testing.T) {
	c := Config{Host: "localhost"}
	if _, err := c.Addr(); err != ErrNoListenAddress {
		t.Fatalf("err = %v, want ErrNoListenAddress", err)
	}
}

func TestRefreshIntervalConversion(t *testing.T) {
	c := Config{RefreshIntervalMicros: 33000}
	if got := c.RefreshInterval(); got.Microseconds() != 33000 {
		t.Fatalf("RefreshInterval() = %v", got)
	}
}
