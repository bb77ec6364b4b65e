package ingest

import (
	"fmt"
	"strings"

	"rq-formatter/utils"
)

// Protocol describes one version of the capture-service log tags. An empty
// tag means the protocol does not carry that record type.
type Protocol struct {
	Name         string
	Coordinate   string
	Acceleration string
	Orientation  string
}

var (
	// ProtocolRQ is the canonical format: fixes, raw accelerometer samples
	// and rotation-vector samples.
	ProtocolRQ = Protocol{
		Name:         utils.ProtocolRQ,
		Coordinate:   "C:",
		Acceleration: "A:",
		Orientation:  "R:",
	}

	// ProtocolLegacy is the older capture format without rotation data.
	ProtocolLegacy = Protocol{
		Name:         utils.ProtocolLegacy,
		Coordinate:   "LATLON:",
		Acceleration: "ACCELE:",
	}

	protocols = []Protocol{ProtocolRQ, ProtocolLegacy}
)

// ProtocolByName resolves a config value to a Protocol.
func ProtocolByName(name string) (Protocol, error) {
	for _, p := range protocols {
		if p.Name == name {
			return p, nil
		}
	}
	return Protocol{}, fmt.Errorf("unknown log protocol %q", name)
}

func (p Protocol) tags() []string {
	var out []string
	for _, t := range []string{p.Coordinate, p.Acceleration, p.Orientation} {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// foreignTag returns the tag of another protocol that line starts with, if any.
func (p Protocol) foreignTag(line string) (string, bool) {
	for _, other := range protocols {
		if other.Name == p.Name {
			continue
		}
		for _, t := range other.tags() {
			if strings.HasPrefix(line, t) {
				return t, true
			}
		}
	}
	return "", false
}
