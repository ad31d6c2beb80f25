// Package fabric models the physical side of the device: bels (placement
// sites), the wires their pins attach to, tiles, package pins and the
// dedicated global networks some bels feed. The Model also carries the
// cell bindings, which only the placer mutates; everything else treats the
// model as read-only.
package fabric

import (
	"log"
	"sort"

	"icepl/netlist"
)

type BelId int
type WireId int

const NilBel BelId = -1
const NilWire WireId = -1

// BelType mirrors the cell types a bel can host.
type BelType int

const (
	LogicCell BelType = iota
	IOCell
	GlobalBufferCell
	PLLCell
	Other
)

func (t BelType) String() string {
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

// Loc is a bel position. Z disambiguates bels sharing one tile position;
// logic-cell bels of a tile are z 0..7, IO pads pair z 0 with z 1.
type Loc struct {
	X int
	Y int
	Z int
}

// BelPin is one attachment point of a wire.
type BelPin struct {
	Bel BelId
	Pin string
}

type bel struct {
	name   string
	typ    BelType
	loc    Loc
	padpin string
	glbnet int
	pins   map[string]WireId
}

type wire struct {
	name    string
	belpins []BelPin
}

// Model is the arena of bels and wires plus the current bindings. Bels and
// wires are appended during fabric construction and static afterwards;
// bindings change only through Bind and Unbind.
type Model struct {
	design *netlist.Design

	bels  []bel
	wires []wire

	byloc  map[Loc]BelId
	byname map[string]BelId
	bytile map[[2]int][]BelId

	bound   []netlist.CellId // per bel
	cellbel map[netlist.CellId]BelId
}

func NewModel(design *netlist.Design) *Model {
	return &Model{
		design:  design,
		byloc:   make(map[Loc]BelId),
		byname:  make(map[string]BelId),
		bytile:  make(map[[2]int][]BelId),
		cellbel: make(map[netlist.CellId]BelId),
	}
}

// Construction //////////////////////////////////////////////////////////////

func (m *Model) AddBel(name string, typ BelType, loc Loc) BelId {
	if _, ok := m.byname[name]; ok {
		log.Fatalf("fabric: duplicate bel %q", name)
	}
	if _, ok := m.byloc[loc]; ok {
		log.Fatalf("fabric: bel %q collides at (%d,%d,%d)", name, loc.X, loc.Y, loc.Z)
	}

	id := BelId(len(m.bels))
	m.bels = append(m.bels, bel{
		name:   name,
		typ:    typ,
		loc:    loc,
		glbnet: -1,
		pins:   make(map[string]WireId),
	})
	m.byloc[loc] = id
	m.byname[name] = id
	tile := [2]int{loc.X, loc.Y}
	m.bytile[tile] = append(m.bytile[tile], id)
	m.bound = append(m.bound, netlist.NilCell)
	return id
}

func (m *Model) AddWire(name string) WireId {
	id := WireId(len(m.wires))
	m.wires = append(m.wires, wire{name: name})
	return id
}

// ConnectBelPin attaches a bel pin to a wire, registering the link in both
// directions.
func (m *Model) ConnectBelPin(b BelId, pin string, w WireId) {
	if _, ok := m.bels[b].pins[pin]; ok {
		log.Fatalf("fabric: bel %q pin %q already wired", m.bels[b].name, pin)
	}
	m.bels[b].pins[pin] = w
	m.wires[w].belpins = append(m.wires[w].belpins, BelPin{b, pin})
}

// SetPackagePin marks a bel as bonded out to a physical package pin.
func (m *Model) SetPackagePin(b BelId, pin string) {
	m.bels[b].padpin = pin
}

// SetGlobalNetwork records the dedicated global network a bel drives.
func (m *Model) SetGlobalNetwork(b BelId, glb int) {
	m.bels[b].glbnet = glb
}

// Queries ///////////////////////////////////////////////////////////////////

func (m *Model) NumBels() int {
	return len(m.bels)
}

func (m *Model) NumWires() int {
	return len(m.wires)
}

func (m *Model) BelName(b BelId) string {
	return m.bels[b].name
}

func (m *Model) BelType(b BelId) BelType {
	return m.bels[b].typ
}

func (m *Model) BelLocation(b BelId) Loc {
	return m.bels[b].loc
}

// BelByLocation returns NilBel when no bel exists at loc.
func (m *Model) BelByLocation(loc Loc) BelId {
	if b, ok := m.byloc[loc]; ok {
		return b
	}
	return NilBel
}

// BelByName returns NilBel when no bel has that name.
func (m *Model) BelByName(name string) BelId {
	if b, ok := m.byname[name]; ok {
		return b
	}
	return NilBel
}

// BelsByTile lists every bel at tile (x,y), in creation order.
func (m *Model) BelsByTile(x, y int) []BelId {
	return m.bytile[[2]int{x, y}]
}

// BelPackagePin returns "" for a bel that is not bonded out.
func (m *Model) BelPackagePin(b BelId) string {
	return m.bels[b].padpin
}

// BelPinWire returns NilWire when the bel has no such pin.
func (m *Model) BelPinWire(b BelId, pin string) WireId {
	if w, ok := m.bels[b].pins[pin]; ok {
		return w
	}
	return NilWire
}

// BelPins lists a bel's wired pin names in sorted order.
func (m *Model) BelPins(b BelId) []string {
	pins := make([]string, 0, len(m.bels[b].pins))
	for pin := range m.bels[b].pins {
		pins = append(pins, pin)
	}
	sort.Strings(pins)
	return pins
}

func (m *Model) WireName(w WireId) string {
	return m.wires[w].name
}

// WireBelPins lists every bel pin attached to a wire.
func (m *Model) WireBelPins(w WireId) []BelPin {
	if w == NilWire {
		return nil
	}
	return m.wires[w].belpins
}

// DrivenGlobalNetwork returns -1 for a bel that feeds no global network.
func (m *Model) DrivenGlobalNetwork(b BelId) int {
	return m.bels[b].glbnet
}

// Bindings //////////////////////////////////////////////////////////////////

// Bind records cell as bound to bel. Only the placer calls this.
func (m *Model) Bind(b BelId, cell netlist.CellId) {
	if m.bound[b] != netlist.NilCell {
		log.Fatalf("fabric: bel %q already bound", m.bels[b].name)
	}
	if old, ok := m.cellbel[cell]; ok {
		log.Fatalf("fabric: cell %q already placed at %q",
			m.design.Cell(cell).Name, m.bels[old].name)
	}
	m.bound[b] = cell
	m.cellbel[cell] = b
}

// Unbind releases the binding on bel, if any.
func (m *Model) Unbind(b BelId) {
	cell := m.bound[b]
	if cell == netlist.NilCell {
		return
	}
	m.bound[b] = netlist.NilCell
	delete(m.cellbel, cell)
}

// BoundBelCell returns the cell bound to bel, nil when the bel is empty.
func (m *Model) BoundBelCell(b BelId) *netlist.Cell {
	return m.design.Cell(m.bound[b])
}

// CellBel returns the bel a cell is bound to, NilBel when unplaced.
func (m *Model) CellBel(cell netlist.CellId) BelId {
	if b, ok := m.cellbel[cell]; ok {
		return b
	}
	return NilBel
}

func (m *Model) Design() *netlist.Design {
	return m.design
}
