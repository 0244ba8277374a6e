// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import "testing"

func TestLookupCountry_Uninitialized(t *testing.T) {
	g := NewLookup()
	if got := g.LookupCountry("8.8.8.8"); got != "" {
		t.Errorf("LookupCountry before Init = %q, want empty", got)
	}
}

func TestLookupCountry_Disabled(t *testing.T) {
	g := NewLookup()
	if err := g.Init(""); err != nil {
		t.Fatalf("Init with empty path: %v", err)
	}
	if g.IsEnabled() {
		t.Error("expected lookup to stay disabled with empty path")
	}
	if got := g.LookupCountry("8.8.8.8"); got != "" {
		t.Errorf("LookupCountry disabled = %q, want empty", got)
	}
}

func TestLookupCountry_PrivateAddresses(t *testing.T) {
	g := NewLookup()
	_ = g.Init("")

	tests := []string{"127.0.0.1", "10.1.2.3", "192.168.1.1", "172.16.0.5", "::1"}
	for _, ip := range tests {
		if got := g.LookupCountry(ip); got != "LOCAL" {
			t.Errorf("LookupCountry(%q) = %q, want LOCAL", ip, got)
		}
	}
}

func TestLookupCountry_InvalidIP(t *testing.T) {
	g := NewLookup()
	_ = g.Init("")

	if got := g.LookupCountry("not-an-ip"); got != "" {
		t.Errorf("LookupCountry invalid = %q, want empty", got)
	}
}

func TestInit_MissingDatabase(t *testing.T) {
	g := NewLookup()
	if err := g.Init("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Fatal("expected error for missing database file")
	}
	if g.IsEnabled() {
		t.Error("expected lookup to be disabled after failed Init")
	}
}
