// Package config loads the engine's wiring parameters from an ini
// file, the same format and library the object dictionary parser uses
// for EDS files (gopkg.in/ini.v1).
package config

import (
	"fmt"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/tlindqvist/udsd/pkg/uds"
)

// The on-disk layout has one [link] section for the two
// arbitration IDs and buffer capacity, one [timing] section for the
// protocol timeouts. Numeric values may be written in 0x-hex or
// decimal, matching the EDS convention the parser already relies on.
//
// Example:
//
//	[link]
//	physical_rx_id = 0x7E0
//	functional_rx_id = 0x7DF
//	response_buffer_capacity = 4095
//
//	[timing]
//	p2_ms = 50
//	p2_star_ms = 5000
//	s3_ms = 5000
const (
	sectionLink   = "link"
	sectionTiming = "timing"
)

// Load parses path into a uds.Config. Every key is mandatory; a
// missing or malformed key is returned as an error rather than
// defaulted, since a silently-wrong timing parameter is worse than a
// refusal to start.
func Load(path string) (uds.Config, error) {
	var cfg uds.Config

	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}

	link, err := section(file, sectionLink)
	if err != nil {
		return cfg, err
	}
	timing, err := section(file, sectionTiming)
	if err != nil {
		return cfg, err
	}

	physicalRxID, err := hexOrDecimal(link, "physical_rx_id")
	if err != nil {
		return cfg, err
	}
	functionalRxID, err := hexOrDecimal(link, "functional_rx_id")
	if err != nil {
		return cfg, err
	}
	capacity, err := hexOrDecimal(link, "response_buffer_capacity")
	if err != nil {
		return cfg, err
	}

	p2, err := hexOrDecimal(timing, "p2_ms")
	if err != nil {
		return cfg, err
	}
	p2Star, err := hexOrDecimal(timing, "p2_star_ms")
	if err != nil {
		return cfg, err
	}
	s3, err := hexOrDecimal(timing, "s3_ms")
	if err != nil {
		return cfg, err
	}

	cfg = uds.Config{
		PhysicalRxID:           uint32(physicalRxID),
		FunctionalRxID:         uint32(functionalRxID),
		ResponseBufferCapacity: uint16(capacity),
		P2Ms:                   uint32(p2),
		P2StarMs:               uint32(p2Star),
		S3Ms:                   uint32(s3),
	}
	return cfg, nil
}

func section(file *ini.File, name string) (*ini.Section, error) {
	sec, err := file.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("config: missing [%s] section", name)
	}
	return sec, nil
}

// hexOrDecimal mirrors the teacher's EDS parser convention of allowing
// either "0x..." or plain decimal for numeric fields.
func hexOrDecimal(sec *ini.Section, key string) (uint64, error) {
	if !sec.HasKey(key) {
		return 0, fmt.Errorf("config: missing key %q in [%s]", key, sec.Name())
	}
	raw := sec.Key(key).String()
	v, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("config: key %q: %w", key, err)
	}
	return v, nil
}
