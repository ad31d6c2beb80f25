// Package place implements placement legality and scoring over a fabric
// model and a design. Every query is a pure read of the bindings at call
// time; the placer owns all mutation and may evaluate candidates
// hypothetically, before committing a bind.
package place

import (
	"log"

	"icepl/fabric"
	"icepl/netlist"
)

// LocalsBudget is a tile's local-routing fan-in: each non-global control
// net and each logic-cell input consumes one unit. Global nets bypass the
// local interconnect and are free.
const LocalsBudget = 32

// TileBels is the number of logic-cell bels in one tile.
const TileBels = 8

// Checker answers legality and scoring queries. It holds no state beyond
// the model and design references, so one Checker serves any number of
// queries.
type Checker struct {
	fab *fabric.Model
	nl  *netlist.Design
}

func New(fab *fabric.Model) *Checker {
	return &Checker{
		fab: fab,
		nl:  fab.Design(),
	}
}

// LogicCellsCompatible reports whether a group of logic cells may share one
// tile. All flip-flop users must agree on one control signature (clock
// enable, clock, set/reset and clock polarity), and the group's local
// routing demand must fit the tile budget. The result does not depend on
// the order of the group.
func (c *Checker) LogicCellsCompatible(cells []*netlist.Cell) bool {
	dffsExist, dffsNeg := false, false
	cen, clk, sr := netlist.NilNet, netlist.NilNet, netlist.NilNet
	locals := 0

	for _, cell := range cells {
		if cell.Type != netlist.LogicCell {
			log.Fatalf("place: %v in a logic cell group", cell)
		}
		lc := cell.LC

		if lc.DffEnable {
			if !dffsExist {
				dffsExist = true
				cen = lc.Cen
				clk = lc.Clk
				sr = lc.Sr

				if cen != netlist.NilNet && !c.nl.Net(cen).IsGlobal {
					locals++
				}
				if clk != netlist.NilNet && !c.nl.Net(clk).IsGlobal {
					locals++
				}
				if sr != netlist.NilNet && !c.nl.Net(sr).IsGlobal {
					locals++
				}

				if lc.NegClk {
					dffsNeg = true
				}
			} else {
				if cen != lc.Cen {
					return false
				}
				if clk != lc.Clk {
					return false
				}
				if sr != lc.Sr {
					return false
				}
				if dffsNeg != lc.NegClk {
					return false
				}
			}
		}

		locals += lc.InputCount
	}

	return locals <= LocalsBudget
}

// IsBelLocationValid checks a bel in its committed state. Logic-cell bels
// are judged as a tile group; any other bel is judged by its bound cell
// alone, and an empty bel is always legal.
func (c *Checker) IsBelLocationValid(bel fabric.BelId) bool {
	if c.fab.BelType(bel) == fabric.LogicCell {
		cells := make([]*netlist.Cell, 0, TileBels)
		loc := c.fab.BelLocation(bel)
		for _, other := range c.fab.BelsByTile(loc.X, loc.Y) {
			if ci := c.fab.BoundBelCell(other); ci != nil {
				cells = append(cells, ci)
			}
		}
		return c.LogicCellsCompatible(cells)
	}

	ci := c.fab.BoundBelCell(bel)
	if ci == nil {
		return true
	}
	return c.IsValidBelForCell(ci, bel)
}

// ScoreBelForCell biases the placer toward packing flip-flop users into
// partly filled tiles. Higher is preferred.
func (c *Checker) ScoreBelForCell(cell *netlist.Cell, bel fabric.BelId) int {
	// Only logic cells express a preference.
	if cell.Type != netlist.LogicCell {
		return 0
	}

	if c.fab.BelType(bel) != fabric.LogicCell {
		log.Fatalf("place: scoring %v against %s bel %q",
			cell, c.fab.BelType(bel), c.fab.BelName(bel))
	}

	// Without a flip-flop any tile is as good as any other.
	if !cell.LC.DffEnable {
		return TileBels
	}

	occupied := 0
	loc := c.fab.BelLocation(bel)
	for _, other := range c.fab.BelsByTile(loc.X, loc.Y) {
		if other != bel && c.fab.BoundBelCell(other) != nil {
			occupied++
		}
	}

	return TileBels - occupied
}

// IsValidBelForCell checks a candidate (cell, bel) pair as if the cell were
// bound there. The bel's actual occupant, if any, is ignored, so the placer
// can evaluate swaps before committing them.
func (c *Checker) IsValidBelForCell(cell *netlist.Cell, bel fabric.BelId) bool {
	switch cell.Type {
	case netlist.LogicCell:
		return c.validLogicCell(cell, bel)
	case netlist.IOCell:
		return c.validIOCell(cell, bel)
	case netlist.GlobalBufferCell:
		return c.validGlobalBuffer(cell, bel)
	default:
		// No placement rules for PLLs and generic cells.
		return true
	}
}

func (c *Checker) validLogicCell(cell *netlist.Cell, bel fabric.BelId) bool {
	if c.fab.BelType(bel) != fabric.LogicCell {
		log.Fatalf("place: %v against %s bel %q",
			cell, c.fab.BelType(bel), c.fab.BelName(bel))
	}

	cells := make([]*netlist.Cell, 0, TileBels)
	loc := c.fab.BelLocation(bel)
	for _, other := range c.fab.BelsByTile(loc.X, loc.Y) {
		if other == bel {
			continue
		}
		if ci := c.fab.BoundBelCell(other); ci != nil {
			cells = append(cells, ci)
		}
	}

	cells = append(cells, cell)
	return c.LogicCellsCompatible(cells)
}

func (c *Checker) validIOCell(cell *netlist.Cell, bel fabric.BelId) bool {
	// An input pad must not land on a bel a placed PLL is feeding its
	// clock output into, unless the PLL explicitly designates this bel as
	// its pad-input site.
	wire := c.fab.BelPinWire(bel, netlist.DIn0)
	for _, pin := range c.fab.WireBelPins(wire) {
		if pin.Pin != netlist.PllOutA && pin.Pin != netlist.PllOutB {
			continue
		}

		pll := c.fab.BoundBelCell(pin.Bel)
		if pll == nil {
			break
		}

		// The B tap only conflicts when the PLL runs in dual-output mode.
		if pin.Pin == netlist.PllOutB && pll.Attr(netlist.AttrDualOutput) == "" {
			break
		}

		// Output-only pads do not contend for the input path.
		if cell.PortNet(netlist.DIn0) == netlist.NilNet &&
			cell.PortNet(netlist.DIn1) == netlist.NilNet {
			break
		}

		if pll.Attr(netlist.AttrPadInput) == c.fab.BelName(bel) {
			return true
		}

		return false
	}

	loc := c.fab.BelLocation(bel)
	comploc := loc
	comploc.Z = 1 - comploc.Z

	compbel := c.fab.BelByLocation(comploc)
	var compcell *netlist.Cell
	if compbel != fabric.NilBel {
		compcell = c.fab.BoundBelCell(compbel)
	}

	if cell.IO.Lvds {
		// An LVDS pair claims both halves of the location: the cell sits
		// at z 0 and its complement stays empty.
		if loc.Z != 0 {
			return false
		}
		if compcell != nil {
			return false
		}
	} else {
		if compcell != nil && compcell.IO != nil && compcell.IO.Lvds {
			return false
		}

		// Both halves of a pad pair run off one set of INPUT_CLK,
		// OUTPUT_CLK and CLOCK_ENABLE drivers. For each resource this
		// cell needs, the sibling must agree on the net whenever it
		// needs the resource too or has anything bound there.
		if compcell != nil {
			io, cio := cell.IO, compcell.IO
			use := [6]bool{
				io.NeedClkIn, cio.NeedClkIn,
				io.NeedClkOut, cio.NeedClkOut,
				io.NeedClkEn, cio.NeedClkEn,
			}
			nets := [6]netlist.NetId{
				cell.PortNet(netlist.InputClk), compcell.PortNet(netlist.InputClk),
				cell.PortNet(netlist.OutputClk), compcell.PortNet(netlist.OutputClk),
				cell.PortNet(netlist.ClockEnable), compcell.PortNet(netlist.ClockEnable),
			}

			for i := 0; i < 6; i++ {
				if use[i] && nets[i] != nets[i^1] && (use[i^1] || nets[i^1] != netlist.NilNet) {
					return false
				}
			}
		}
	}

	// Internal-only sites can never reach a pad.
	return c.fab.BelPackagePin(bel) != ""
}

func (c *Checker) validGlobalBuffer(cell *netlist.Cell, bel fabric.BelId) bool {
	if cell.GB.ForPadIn {
		return true
	}

	netid := cell.PortNet(netlist.GlobalBufferOutput)
	if netid == netlist.NilNet {
		log.Fatalf("place: %v has no output net", cell)
	}
	net := c.nl.Net(netid)

	// Reset lines ride even global networks, enable lines odd ones. A net
	// serving as both can satisfy neither parity.
	glb := c.fab.DrivenGlobalNetwork(bel)
	switch {
	case net.IsReset && net.IsEnable:
		return false
	case net.IsReset:
		return glb%2 == 0
	case net.IsEnable:
		return glb%2 == 1
	default:
		return true
	}
}
