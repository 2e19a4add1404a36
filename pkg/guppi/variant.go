package guppi

import (
	"fmt"
	"sort"
	"strings"
)

// Telescope discriminates the header dialects. Unrecognised identifiers map
// to TelescopeGeneric.
type Telescope uint8

const (
	TelescopeGeneric Telescope = iota
	TelescopeATA
	TelescopeCOSMIC
	TelescopeMeerKAT
)

// variantSpec is the fixed layout of one header dialect.
type variantSpec struct {
	Name  string
	Ident string

	// antennaKey is the card prefix of the antenna name list
	// (eg ANTNMS00, ANTNMS01, ...). Empty when the dialect has none.
	antennaKey string
}

func genericSpec() *variantSpec {
	return &variantSpec{Name: "generic", Ident: "Unknown"}
}

func ataSpec() *variantSpec {
	return &variantSpec{Name: "ata", Ident: "ATA", antennaKey: "ANTNMS"}
}

func cosmicSpec() *variantSpec {
	return &variantSpec{Name: "cosmic", Ident: "VLA", antennaKey: "ANTNMS"}
}

func meerkatSpec() *variantSpec {
	return &variantSpec{Name: "meerkat", Ident: "MeerKAT", antennaKey: "ANTNMS"}
}

var variants = [...]*variantSpec{
	TelescopeGeneric: genericSpec(),
	TelescopeATA:     ataSpec(),
	TelescopeCOSMIC:  cosmicSpec(),
	TelescopeMeerKAT: meerkatSpec(),
}

// registry maps lower-cased TELESCOP identifiers to their dialect.
var registry = func() map[string]Telescope {
	m := make(map[string]Telescope, len(variants))
	for t, spec := range variants {
		m[strings.ToLower(spec.Ident)] = Telescope(t)
	}
	return m
}()

func (t Telescope) spec() *variantSpec {
	if int(t) < len(variants) {
		return variants[t]
	}
	return variants[TelescopeGeneric]
}

func (t Telescope) String() string {
	if int(t) < len(variants) {
		return variants[t].Name
	}
	return fmt.Sprintf("telescope(%d)", uint8(t))
}

// Ident is the TELESCOP value written for this dialect.
func (t Telescope) Ident() string { return t.spec().Ident }

// Lookup resolves a TELESCOP identifier, case-insensitively, falling back to
// TelescopeGeneric.
func Lookup(ident string) Telescope {
	if t, ok := registry[strings.ToLower(strings.TrimSpace(ident))]; ok {
		return t
	}
	return TelescopeGeneric
}

// Idents lists the registered identifiers in sorted order.
func Idents() []string {
	out := make([]string, 0, len(variants))
	for _, spec := range variants {
		out = append(out, spec.Ident)
	}
	sort.Strings(out)
	return out
}

// antennas collects the comma separated names spread over antennaKey00,
// antennaKey01, ... until the first missing card.
func (s *variantSpec) antennas(rec *Record) []string {
	if s.antennaKey == "" {
		return nil
	}
	var names []string
	for i := 0; i < 100; i++ {
		v, ok := rec.GetString(fmt.Sprintf("%s%02d", s.antennaKey, i))
		if !ok {
			break
		}
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
