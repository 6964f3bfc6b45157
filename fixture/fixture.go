// Package fixture assembles defs.GlobalDefs and trace.LocalTrace values
// from glob-matched JSON fixture files, standing in for the out-of-scope
// OTF2/EPILOG trace readers. File discovery is directly adapted from the
// teacher's registry/wf package, which resolves **-glob file arguments into
// a list of input documents with the same library.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pearl-replay/pearl/defs"
)

// DefsFixture is the JSON shape of one definitions file: the region table
// and location table needed to build a defs.GlobalDefs.
type DefsFixture struct {
	Regions   []RegionFixture   `json:"regions"`
	Locations []LocationFixture `json:"locations"`
}

// RegionFixture describes one traced region by name.
type RegionFixture struct {
	Name     string `json:"name"`
	Paradigm string `json:"paradigm"`
}

// LocationFixture describes one traced location by name.
type LocationFixture struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LoadDefs reads every file matching glob (in lexical order, for
// reproducible ids) as a DefsFixture and builds one GlobalDefs from their
// concatenation: region/location tables append across files in the order
// the files were matched.
func LoadDefs(glob string) (*defs.GlobalDefs, error) {
	matches, err := doublestar.FilepathGlob(glob)
	if err != nil {
		return nil, fmt.Errorf("fixture: bad defs glob %q: %w", glob, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("fixture: no defs files matched %q", glob)
	}
	sort.Strings(matches)

	b := defs.NewBuilder()
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("fixture: reading %s: %w", path, err)
		}
		var f DefsFixture
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("fixture: parsing %s: %w", path, err)
		}
		for _, r := range f.Regions {
			nameRef := b.AddString(r.Name)
			b.AddRegion(defs.Region{NameRef: nameRef, Paradigm: paradigmFromName(r.Paradigm)})
		}
		for _, l := range f.Locations {
			nameRef := b.AddString(l.Name)
			b.AddLocation(defs.Location{NameRef: nameRef, Type: l.Type, ParentID: defs.NoID})
		}
	}

	return b.Build(), nil
}

func paradigmFromName(name string) defs.Paradigm {
	switch name {
	case "mpi", "MPI":
		return defs.ParadigmMPI
	default:
		return defs.ParadigmUser
	}
}
