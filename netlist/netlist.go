// Package netlist holds the logical design that the placer maps onto the
// fabric: nets, cell instances and their type-specific rule info. Records
// live in a Design arena and are referred to by stable integer ids so that
// the placement engine can read them without owning them.
package netlist

import (
	"fmt"
	"log"
)

type NetId int
type CellId int

const NilNet NetId = -1
const NilCell CellId = -1

// Cell type tags. A cell may only be bound to a bel of the matching type.
type CellType int

const (
	LogicCell CellType = iota
	IOCell
	GlobalBufferCell
	PLLCell
	Other
)

func (t CellType) String() string {
	switch t {
	case LogicCell:
		return "LOGIC"
	case IOCell:
		return "IO"
	case GlobalBufferCell:
		return "GBUF"
	case PLLCell:
		return "PLL"
	}
	return "OTHER"
}

// Port names with placement rules attached to them.
const (
	DIn0               = "D_IN_0"
	DIn1               = "D_IN_1"
	InputClk           = "INPUT_CLK"
	OutputClk          = "OUTPUT_CLK"
	ClockEnable        = "CLOCK_ENABLE"
	GlobalBufferOutput = "GLOBAL_BUFFER_OUTPUT"
	PllOutA            = "PLLOUT_A"
	PllOutB            = "PLLOUT_B"
)

// Cell attribute keys.
const (
	// AttrPadInput on a PLL cell names, by string match, the one
	// input-capable bel allowed to coexist with the PLL's clock tap.
	AttrPadInput = "BEL_PAD_INPUT"

	// AttrDualOutput on a PLL cell marks its second clock tap as active.
	AttrDualOutput = "DUAL_OUTPUT"
)

type Net struct {
	Name     string
	IsGlobal bool
	IsReset  bool
	IsEnable bool
}

// LogicCellInfo carries the flip-flop control nets of a logic cell. A tile
// provides a single set of control drivers shared by every flip-flop in it,
// so these fields decide which logic cells may share a tile.
type LogicCellInfo struct {
	DffEnable  bool
	NegClk     bool
	Cen        NetId
	Clk        NetId
	Sr         NetId
	InputCount int
}

// IOCellInfo carries the pad mode of an IO cell. The need* predicates are
// decoded from the raw pintype bits once at construction.
type IOCellInfo struct {
	Lvds    bool
	Pintype uint32

	NeedClkIn  bool
	NeedClkOut bool
	NeedClkEn  bool
}

func NewIOCellInfo(lvds bool, pintype uint32) *IOCellInfo {
	in := pintypeNeedClkIn(pintype)
	out := pintypeNeedClkOut(pintype)
	return &IOCellInfo{
		Lvds:       lvds,
		Pintype:    pintype,
		NeedClkIn:  in,
		NeedClkOut: out,
		NeedClkEn:  in || out,
	}
}

// Bit 0 clear means the pad registers its input.
func pintypeNeedClkIn(pintype uint32) bool {
	return (pintype & 0x01) == 0x00
}

// Bits 5:2 select the output mode; every registered output mode needs the
// output clock except the 0x8 group (unregistered data path).
func pintypeNeedClkOut(pintype uint32) bool {
	return ((pintype & 0x30) == 0x30) ||
		((pintype&0x3c) != 0 && (pintype&0x0c) != 0x08)
}

type GlobalBufferInfo struct {
	// ForPadIn marks a buffer that exists only to forward an external pad
	// into the global network. It has no placement constraints of its own.
	ForPadIn bool
}

// Cell is one netlist instance. Exactly one of LC, IO, GB is non-nil,
// matching Type; PLL and Other cells carry only ports and attributes.
type Cell struct {
	Name  string
	Type  CellType
	Ports map[string]NetId
	Attrs map[string]string

	LC *LogicCellInfo
	IO *IOCellInfo
	GB *GlobalBufferInfo
}

func (c Cell) String() string {
	return fmt.Sprintf("[%s %s]", c.Type, c.Name)
}

// PortNet returns the net bound to the named port, NilNet if the port is
// absent or unconnected.
func (c *Cell) PortNet(port string) NetId {
	if net, ok := c.Ports[port]; ok {
		return net
	}
	return NilNet
}

// Attr returns the named attribute, "" if absent.
func (c *Cell) Attr(key string) string {
	return c.Attrs[key]
}

////////////////////////////////////////////////////////////////////////////////

// Design is the arena of nets and cells. Cells and nets are appended during
// netlist construction and immutable afterwards.
type Design struct {
	Name  string
	nets  []Net
	cells []Cell

	netbyname  map[string]NetId
	cellbyname map[string]CellId
}

func NewDesign(name string) *Design {
	return &Design{
		Name:       name,
		netbyname:  make(map[string]NetId),
		cellbyname: make(map[string]CellId),
	}
}

func (d *Design) AddNet(net Net) NetId {
	if _, ok := d.netbyname[net.Name]; ok {
		log.Fatalf("%s: duplicate net %q", d.Name, net.Name)
	}
	id := NetId(len(d.nets))
	d.nets = append(d.nets, net)
	d.netbyname[net.Name] = id
	return id
}

func (d *Design) AddCell(cell Cell) CellId {
	if _, ok := d.cellbyname[cell.Name]; ok {
		log.Fatalf("%s: duplicate cell %q", d.Name, cell.Name)
	}
	if cell.Ports == nil {
		cell.Ports = make(map[string]NetId)
	}
	id := CellId(len(d.cells))
	d.cells = append(d.cells, cell)
	d.cellbyname[cell.Name] = id
	return id
}

func (d *Design) Net(id NetId) *Net {
	if id == NilNet {
		return nil
	}
	return &d.nets[id]
}

func (d *Design) Cell(id CellId) *Cell {
	if id == NilCell {
		return nil
	}
	return &d.cells[id]
}

func (d *Design) NetByName(name string) NetId {
	if id, ok := d.netbyname[name]; ok {
		return id
	}
	return NilNet
}

func (d *Design) CellByName(name string) CellId {
	if id, ok := d.cellbyname[name]; ok {
		return id
	}
	return NilCell
}

func (d *Design) NumNets() int {
	return len(d.nets)
}

func (d *Design) NumCells() int {
	return len(d.cells)
}
