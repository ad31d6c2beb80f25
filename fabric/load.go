package fabric

import (
	"encoding/json"
	"io"
	"log"

	"icepl/netlist"
)

// Wire format for a fabric description. Bel pins refer to wires by name;
// wire names must be unique within the description.
type beldoc struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	X      int               `json:"x"`
	Y      int               `json:"y"`
	Z      int               `json:"z"`
	Padpin string            `json:"padpin"`
	Glbnet *int              `json:"glbnet"`
	Pins   map[string]string `json:"pins"`
}

type fabricdoc struct {
	Name  string   `json:"name"`
	Wires []string `json:"wires"`
	Bels  []beldoc `json:"bels"`
}

var beltypes = map[string]BelType{
	"logic": LogicCell,
	"io":    IOCell,
	"gbuf":  GlobalBufferCell,
	"pll":   PLLCell,
	"other": Other,
}

// Load reads a JSON fabric description into a model bound against design.
// Malformed input is fatal.
func Load(reader io.Reader, design *netlist.Design) *Model {
	var doc fabricdoc
	err := json.NewDecoder(reader).Decode(&doc)
	if err != nil {
		log.Fatal(err)
	}

	m := NewModel(design)

	wires := make(map[string]WireId)
	for _, name := range doc.Wires {
		if _, ok := wires[name]; ok {
			log.Fatalf("%s: duplicate wire %q", doc.Name, name)
		}
		wires[name] = m.AddWire(name)
	}

	for _, b := range doc.Bels {
		typ, ok := beltypes[b.Type]
		if !ok {
			log.Fatalf("%s: bel %q has unknown type %q", doc.Name, b.Name, b.Type)
		}

		bel := m.AddBel(b.Name, typ, Loc{X: b.X, Y: b.Y, Z: b.Z})

		if b.Padpin != "" {
			m.SetPackagePin(bel, b.Padpin)
		}
		if b.Glbnet != nil {
			m.SetGlobalNetwork(bel, *b.Glbnet)
		}

		for pin, wname := range b.Pins {
			w, ok := wires[wname]
			if !ok {
				log.Fatalf("%s: bel %q pin %q refers to unknown wire %q",
					doc.Name, b.Name, pin, wname)
			}
			m.ConnectBelPin(bel, pin, w)
		}
	}

	return m
}
