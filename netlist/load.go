package netlist

import (
	"encoding/json"
	"io"
	"log"
)

// Wire format for a design. Net references in cell documents are net names;
// an absent or empty name means unconnected.
type netdoc struct {
	Name   string `json:"name"`
	Global bool   `json:"global"`
	Reset  bool   `json:"reset"`
	Enable bool   `json:"enable"`
}

type logicdoc struct {
	Dff    bool   `json:"dff"`
	NegClk bool   `json:"negclk"`
	Cen    string `json:"cen"`
	Clk    string `json:"clk"`
	Sr     string `json:"sr"`
	Inputs int    `json:"inputs"`
}

type iodoc struct {
	Lvds    bool   `json:"lvds"`
	Pintype uint32 `json:"pintype"`
}

type gbufdoc struct {
	ForPadIn bool `json:"forpadin"`
}

type celldoc struct {
	Name  string            `json:"name"`
	Type  string            `json:"type"`
	Ports map[string]string `json:"ports"`
	Attrs map[string]string `json:"attrs"`

	Logic *logicdoc `json:"logic"`
	IO    *iodoc    `json:"io"`
	Gbuf  *gbufdoc  `json:"gbuf"`
}

// Placement records a cell-to-bel binding by name, to be applied to a
// fabric model by the caller.
type Placement struct {
	Cell string `json:"cell"`
	Bel  string `json:"bel"`
}

type designdoc struct {
	Name      string      `json:"name"`
	Nets      []netdoc    `json:"nets"`
	Cells     []celldoc   `json:"cells"`
	Placement []Placement `json:"placement"`
}

var celltypes = map[string]CellType{
	"logic": LogicCell,
	"io":    IOCell,
	"gbuf":  GlobalBufferCell,
	"pll":   PLLCell,
	"other": Other,
}

// Load reads a JSON design and returns the design arena along with its
// recorded placement, if any. Malformed input is fatal.
func Load(reader io.Reader) (*Design, []Placement) {
	var doc designdoc
	err := json.NewDecoder(reader).Decode(&doc)
	if err != nil {
		log.Fatal(err)
	}

	d := NewDesign(doc.Name)

	for _, n := range doc.Nets {
		d.AddNet(Net{
			Name:     n.Name,
			IsGlobal: n.Global,
			IsReset:  n.Reset,
			IsEnable: n.Enable,
		})
	}

	for _, c := range doc.Cells {
		typ, ok := celltypes[c.Type]
		if !ok {
			log.Fatalf("%s: cell %q has unknown type %q", doc.Name, c.Name, c.Type)
		}

		cell := Cell{
			Name:  c.Name,
			Type:  typ,
			Ports: make(map[string]NetId),
			Attrs: c.Attrs,
		}

		for port, net := range c.Ports {
			cell.Ports[port] = d.netref(c.Name, net)
		}

		switch typ {
		case LogicCell:
			if c.Logic == nil {
				log.Fatalf("%s: logic cell %q has no logic info", doc.Name, c.Name)
			}
			cell.LC = &LogicCellInfo{
				DffEnable:  c.Logic.Dff,
				NegClk:     c.Logic.NegClk,
				Cen:        d.netref(c.Name, c.Logic.Cen),
				Clk:        d.netref(c.Name, c.Logic.Clk),
				Sr:         d.netref(c.Name, c.Logic.Sr),
				InputCount: c.Logic.Inputs,
			}
		case IOCell:
			if c.IO == nil {
				log.Fatalf("%s: io cell %q has no io info", doc.Name, c.Name)
			}
			cell.IO = NewIOCellInfo(c.IO.Lvds, c.IO.Pintype)
		case GlobalBufferCell:
			if c.Gbuf == nil {
				log.Fatalf("%s: gbuf cell %q has no gbuf info", doc.Name, c.Name)
			}
			cell.GB = &GlobalBufferInfo{ForPadIn: c.Gbuf.ForPadIn}
		}

		d.AddCell(cell)
	}

	return d, doc.Placement
}

// netref resolves a net name from a cell document. Empty means unconnected;
// an unknown name is fatal.
func (d *Design) netref(cell, name string) NetId {
	if name == "" {
		return NilNet
	}
	id := d.NetByName(name)
	if id == NilNet {
		log.Fatalf("%s: cell %q refers to unknown net %q", d.Name, cell, name)
	}
	return id
}
