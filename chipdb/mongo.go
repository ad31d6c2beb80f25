// Package chipdb persists fabric descriptions to MongoDB so that a chip
// database built once can be reloaded by name. Bels and wires are stored
// in per-cache collections keyed by their arena index.
package chipdb

import (
	"log"
	"sync"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"icepl/fabric"
	"icepl/netlist"
)

var mgosession *mgo.Session

const db = "icepl"

var belcoll, wirecoll string

////////////////////////////////////////////////////////////////////////////////
// Worker pool for insert jobs

const MaxMgoThreads = 8

var wg sync.WaitGroup

type insertjob struct {
	col string
	doc interface{}
}

var jobs chan insertjob

func worker() {
	s := mgosession.Copy()

	for job := range jobs {
		c := s.DB(db).C(job.col)
		err := c.Insert(job.doc)
		if err != nil {
			log.Fatal(err)
		}
	}
	wg.Done()
}

// Synchronizers

func DoneMgo() {
	close(jobs)
}

func WaitMgo() {
	wg.Wait()
}

////////////////////////////////////////////////////////////////////////////////

type beldoc struct {
	Idx    int            `bson:"idx"`
	Name   string         `bson:"name"`
	Type   string         `bson:"type"`
	X      int            `bson:"x"`
	Y      int            `bson:"y"`
	Z      int            `bson:"z"`
	Padpin string         `bson:"padpin"`
	Glbnet int            `bson:"glbnet"`
	Pins   map[string]int `bson:"pins"`
}

type wiredoc struct {
	Idx  int    `bson:"idx"`
	Name string `bson:"name"`
}

var beltypes = map[string]fabric.BelType{
	"LOGIC": fabric.LogicCell,
	"IO":    fabric.IOCell,
	"GBUF":  fabric.GlobalBufferCell,
	"PLL":   fabric.PLLCell,
	"OTHER": fabric.Other,
}

func InitMgo(s *mgo.Session, cname string, drop bool) {
	mgosession = s.Copy()

	belcoll = cname + "_bels"
	wirecoll = cname + "_wires"

	if drop {
		dropCollection(belcoll)
		dropCollection(wirecoll)
	}

	err := mgosession.DB(db).C(belcoll).EnsureIndex(mgo.Index{
		Key:    []string{"idx"},
		Unique: true,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Initialize worker pool for insert jobs
	jobs = make(chan insertjob, 100)
	for i := 0; i < MaxMgoThreads; i++ {
		wg.Add(1)
		go worker()
	}
}

func dropCollection(coll string) {
	c := mgosession.DB(db).C(coll)
	err := c.DropCollection()
	if err != nil {
		log.Println(err)
	}
}

// Save pushes every wire and bel of a model to the insert pool. Call
// DoneMgo and WaitMgo to flush.
func Save(m *fabric.Model) {
	for w := 0; w < m.NumWires(); w++ {
		jobs <- insertjob{wirecoll, wiredoc{
			Idx:  w,
			Name: m.WireName(fabric.WireId(w)),
		}}
	}

	for b := 0; b < m.NumBels(); b++ {
		bel := fabric.BelId(b)
		loc := m.BelLocation(bel)

		pins := make(map[string]int)
		for _, pin := range m.BelPins(bel) {
			pins[pin] = int(m.BelPinWire(bel, pin))
		}

		jobs <- insertjob{belcoll, beldoc{
			Idx:    b,
			Name:   m.BelName(bel),
			Type:   m.BelType(bel).String(),
			X:      loc.X,
			Y:      loc.Y,
			Z:      loc.Z,
			Padpin: m.BelPackagePin(bel),
			Glbnet: m.DrivenGlobalNetwork(bel),
			Pins:   pins,
		}}
	}
}

// Load rebuilds a fabric model from the collections of the cache named in
// InitMgo, binding it against the given design. Arena indices are restored
// by loading in idx order.
func Load(design *netlist.Design) *fabric.Model {
	m := fabric.NewModel(design)

	wc := mgosession.DB(db).C(wirecoll)
	wq := wc.Find(nil).Sort("idx")
	wi := wq.Iter()

	var result bson.M

	for wi.Next(&result) {
		bytes, err := bson.Marshal(result)
		if err != nil {
			log.Fatalf("Unable to marshal. wire:%q err:%v", result["name"], err)
		}

		var wd wiredoc
		err = bson.Unmarshal(bytes, &wd)
		if err != nil {
			log.Fatalf("Unable to unmarshal. wire:%q err:%v", result["name"], err)
		}

		if int(m.AddWire(wd.Name)) != wd.Idx {
			log.Fatalf("Wire index gap at %d (%q)", wd.Idx, wd.Name)
		}
	}

	bc := mgosession.DB(db).C(belcoll)
	bq := bc.Find(nil).Sort("idx")
	bi := bq.Iter()

	for bi.Next(&result) {
		bytes, err := bson.Marshal(result)
		if err != nil {
			log.Fatalf("Unable to marshal. bel:%q err:%v", result["name"], err)
		}

		var bd beldoc
		err = bson.Unmarshal(bytes, &bd)
		if err != nil {
			log.Fatalf("Unable to unmarshal. bel:%q err:%v", result["name"], err)
		}

		typ, ok := beltypes[bd.Type]
		if !ok {
			log.Fatalf("Bel %q has unknown type %q", bd.Name, bd.Type)
		}

		bel := m.AddBel(bd.Name, typ, fabric.Loc{X: bd.X, Y: bd.Y, Z: bd.Z})
		if int(bel) != bd.Idx {
			log.Fatalf("Bel index gap at %d (%q)", bd.Idx, bd.Name)
		}

		if bd.Padpin != "" {
			m.SetPackagePin(bel, bd.Padpin)
		}
		if bd.Glbnet >= 0 {
			m.SetGlobalNetwork(bel, bd.Glbnet)
		}
		for pin, w := range bd.Pins {
			m.ConnectBelPin(bel, pin, fabric.WireId(w))
		}
	}

	return m
}
